// Package staging owns the hidden scratch area inside a working directory.
//
// Transcription extracts audio and runs speech-to-text under
// `.reelforge-tmp/<operation-id>`. Those directories, and concat playlists
// left behind by a killed process, are swept once they exceed the configured
// age.
package staging
