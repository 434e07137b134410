// Package midisynth implements a real-time MIDI synthesis and mixing core:
// a Standard MIDI File loader, a tick-based event scheduler, a polyphonic
// voice allocator, two interchangeable synthesis engines (OPL3-style FM and
// SoundFont-2 sample playback), a double-buffered mixer, a transport state
// machine, and a virtual WAV sink used for both live playback and offline
// rendering.
//
// GUI, playlists, per-format decoders, and other surrounding application
// concerns are out of scope; this package only implements the synthesis and
// playback core described in the project's design documents.
package midisynth
