// Package whisper runs speech-to-text over an extracted WAV file.
//
// Two engines are supported: the openai-whisper CLI and WhisperX launched
// through uvx. Both are asked for plain-text output in a caller-owned
// directory; the service reads <stem>.txt back and treats its absence as a
// transcription failure. Nothing is retried.
package whisper
