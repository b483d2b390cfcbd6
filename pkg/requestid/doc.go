// Package requestid tags every HTTP request with a correlation id so log lines
// from the two-factor endpoints can be tied back to a single interaction.
package requestid
