// Package sms computes how many message parts an SMS text occupies.
//
// Texts made only of characters in the GSM 03.38 7-bit alphabet are sent as GSM-7: a single part
// holds 140 bytes (160 septets), and concatenated parts hold 153 septets each. Characters from the
// extension table (such as € or {) take two septets and are never split between parts. Any other
// character forces UCS-2, where a single part holds 70 UTF-16 code units and concatenated parts
// hold 67, without splitting surrogate pairs.
//
// Spans delimited by ~~ are sent without character substitution. The delimiters are not sent, so
// they are removed before counting.
package sms
