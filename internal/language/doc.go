// Package language normalizes the transcription language setting to the ISO
// 639 code the speech-to-text engines expect.
package language
