// Package ewma implements exponentially weighted moving averages of event
// rates, the same recurrence UNIX uses for load averages.
//
// Update may be called from any goroutine; it only adds to an atomic
// counter. Tick folds the accumulated count into the average and must be
// driven by a single external timer whose period matches the interval the
// EWMA was built with.
package ewma
