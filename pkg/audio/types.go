package audio

// SampleRate is the amount of samples per second per channel.
type SampleRate uint32

// Channel is used both as a channel index and as an amount of channels.
type Channel uint32

// DefaultSampleRate is the rate the enhancement pipeline is tuned for.
const DefaultSampleRate = SampleRate(16000)
