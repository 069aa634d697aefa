package tts

import (
	"context"
	"fmt"
	"io"
	"strconv"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
)

type synthClient interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

type Polly struct {
	c synthClient

	SampleRateHz int
	VoiceID      string
	Engine       pollytypes.Engine
}

func NewPolly(ctx context.Context, region string) (*Polly, error) {
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Polly{
		c:            polly.NewFromConfig(awsCfg),
		SampleRateHz: 16000,
		VoiceID:      "Joanna",
		Engine:       pollytypes.EngineNeural,
	}, nil
}

func (p *Polly) Close() error { return nil }

// language example: "en-US", "en-GB"
func (p *Polly) Synthesize(ctx context.Context, text string, language string) ([]byte, int, error) {
	if language == "" {
		language = "en-US"
	}
	rate := strconv.Itoa(p.SampleRateHz)

	out, err := p.c.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       p.Engine,
		OutputFormat: pollytypes.OutputFormatPcm,
		SampleRate:   &rate,
		Text:         &text,
		TextType:     pollytypes.TextTypeText,
		VoiceId:      voiceFor(language, p.VoiceID),
		LanguageCode: pollytypes.LanguageCode(language),
	})
	if err != nil {
		return nil, 0, err
	}
	if out == nil || out.AudioStream == nil {
		return nil, 0, fmt.Errorf("polly returned no audio stream")
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, 0, err
	}
	return audio, p.SampleRateHz, nil
}

func voiceFor(language, fallback string) pollytypes.VoiceId {
	switch language {
	case "en-GB":
		return pollytypes.VoiceIdAmy
	case "en-AU":
		return pollytypes.VoiceIdOlivia
	default:
		return pollytypes.VoiceId(fallback)
	}
}
