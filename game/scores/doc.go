// Package scores keeps player profiles, finished games and the global
// ranking.
//
// Every finished game is recorded against a player uid and bumps the
// profile's game count. Publishing a score is separate: SubmitScore only
// accepts a positive score that beats the player's best, together with the
// username shown in the ranking.
//
// Two stores are provided: MemoryStore for tests and ephemeral servers, and
// FileStore, which keeps a single scores.json document.
package scores
