// Package extract turns a raw claim or threat excerpt into an ordered
// list of literal search candidates, highest precision first.
//
// Claims arrive as free-form sidebar text: often quoted, often cut off
// with an ellipsis, sometimes followed by commentary. Extraction reduces
// that fuzziness to literal substring targets in three tiers:
//
//  1. Whole sentences from the normalized text
//  2. Overlapping five-word phrases over the token stream
//  3. A single last-resort combination of the first three long tokens
//
// The matcher tries tiers in order and stops at the first hit, so tier
// ordering is the entire ranking model. There is no NLP here on purpose:
// literal matching is predictable, fast, and cannot hallucinate a match.
package extract
