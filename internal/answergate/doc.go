// Package answergate enforces the attempt-bounded answer check that unlocks
// media capture for a post.
//
// A Gate holds the hidden reference answer and consumes similarity scores for
// each submission. Two total submissions are permitted by default; the second
// miss locks the gate and reveals the reference text. Correct and Exhausted
// are terminal. A scorer failure is surfaced distinctly and never consumes an
// attempt.
//
// The Registry keys gates by (post, user) so the HTTP surface can run many
// independent sessions; sessions are transient and live only in memory.
package answergate
