package tts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
)

type fakeSynth struct {
	lastInput *polly.SynthesizeSpeechInput
	audio     []byte
	err       error
}

func (f *fakeSynth) SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	f.lastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &polly.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(bytes.NewReader(f.audio)),
	}, nil
}

func TestPollySynthesizePCM(t *testing.T) {
	fake := &fakeSynth{audio: []byte{0x01, 0x00, 0x02, 0x00}}
	p := &Polly{c: fake, SampleRateHz: 16000, VoiceID: "Joanna", Engine: pollytypes.EngineNeural}

	audio, rate, err := p.Synthesize(context.Background(), "hello there", "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d", rate)
	}
	if !bytes.Equal(audio, fake.audio) {
		t.Errorf("audio = %v", audio)
	}
	if fake.lastInput.OutputFormat != pollytypes.OutputFormatPcm {
		t.Errorf("output format = %v, want pcm", fake.lastInput.OutputFormat)
	}
	if got := *fake.lastInput.SampleRate; got != "16000" {
		t.Errorf("sample rate = %q", got)
	}
	if fake.lastInput.LanguageCode != pollytypes.LanguageCode("en-US") {
		t.Errorf("language = %v, want default en-US", fake.lastInput.LanguageCode)
	}
}

func TestPollySynthesizeVoicePerLanguage(t *testing.T) {
	fake := &fakeSynth{audio: []byte{0x00, 0x00}}
	p := &Polly{c: fake, SampleRateHz: 16000, VoiceID: "Joanna", Engine: pollytypes.EngineNeural}

	if _, _, err := p.Synthesize(context.Background(), "hi", "en-GB"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if fake.lastInput.VoiceId != pollytypes.VoiceIdAmy {
		t.Errorf("voice = %v, want Amy for en-GB", fake.lastInput.VoiceId)
	}
}

func TestPollySynthesizeError(t *testing.T) {
	fake := &fakeSynth{err: errors.New("throttled")}
	p := &Polly{c: fake, SampleRateHz: 16000, VoiceID: "Joanna", Engine: pollytypes.EngineNeural}

	if _, _, err := p.Synthesize(context.Background(), "hi", ""); err == nil {
		t.Fatal("expected error")
	}
}
