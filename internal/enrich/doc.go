// Package enrich attaches action items to messages that have not been
// processed yet and marks them with a label so later runs skip them.
//
// The marker label lives in the mailbox, so it is the only record of what
// has been processed. If tagging fails the message is still returned with
// its action items and will simply be processed again next time.
package enrich
