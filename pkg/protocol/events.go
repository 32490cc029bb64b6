package protocol

// ASR ingress/egress event names.
const (
	EventStartTranscription     = "StartTranscription"
	EventStopTranscription      = "StopTranscription"
	EventTranscriptionStarted   = "TranscriptionStarted"
	EventSentenceBegin          = "SentenceBegin"
	EventTranscriptionChanged   = "TranscriptionResultChanged"
	EventSentenceEnd            = "SentenceEnd"
	EventTranscriptionCompleted = "TranscriptionCompleted"
	EventTaskFailed             = "TaskFailed"
)

// TTS ingress/egress event names.
const (
	EventStartSynthesis     = "StartSynthesis"
	EventRunSynthesis       = "RunSynthesis"
	EventStopSynthesis      = "StopSynthesis"
	EventSynthesisStarted   = "SynthesisStarted"
	EventSentenceSynthesis  = "SentenceSynthesis"
	EventSynthesisCompleted = "SynthesisCompleted"
)

// AudioFormat enumerates TTSParams.format (§3).
type AudioFormat string

const (
	FormatPCM AudioFormat = "PCM"
	FormatWAV AudioFormat = "WAV"
	FormatMP3 AudioFormat = "MP3"
)

// SupportedSampleRates enumerates TTSParams.sampleRate (§3).
var SupportedSampleRates = map[int]bool{
	8000: true, 16000: true, 22050: true, 24000: true, 44100: true, 48000: true,
}

// SupportedASRSampleRates restricts ASR StartTranscription.sample_rate (§4.3).
var SupportedASRSampleRates = map[int]bool{8000: true, 16000: true}
