// Package classify turns the text blocks detected in one screenshot into
// transcript messages.
//
// Blocks are visited top to bottom and each is run through an ordered rule
// list where the first matching rule decides the outcome: timestamp banners,
// system notices, unexplained centred text, then left/right speaker bubbles.
// Rule precedence is part of the contract; new rules are inserted into the
// list rather than nested into existing ones.
//
// A Classifier carries State across images: the most recent timestamp banner
// applies to every later bubble until superseded, and message ids keep
// counting. One Classifier serves one run and is not safe for concurrent use.
package classify
