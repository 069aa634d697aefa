package live

// Wire frames for the live humanizer channel. The server side speaks the
// same protocol from its websocket handler.

type ClientFrame struct {
	Type        string `json:"type"` // start|audio_chunk|end_session
	Mode        string `json:"mode,omitempty"`
	ChunkIndex  int64  `json:"chunk_index,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
}

type ServerFrame struct {
	Type string `json:"type"` // input_transcript|output_transcript|audio|turn_complete|interrupted|error|status

	Text        string `json:"text,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	SampleRate  int    `json:"sample_rate,omitempty"`
	ChunkIndex  int64  `json:"chunk_index,omitempty"`

	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

const (
	FrameStart      = "start"
	FrameAudioChunk = "audio_chunk"
	FrameEndSession = "end_session"

	FrameInputTranscript  = "input_transcript"
	FrameOutputTranscript = "output_transcript"
	FrameAudio            = "audio"
	FrameTurnComplete     = "turn_complete"
	FrameInterrupted      = "interrupted"
	FrameError            = "error"
	FrameStatus           = "status"
)
