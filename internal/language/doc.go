// Package language normalizes the language codes users pass on the command
// line and that caption tracks report.
//
// Names ("english"), ISO 639-2 codes ("eng") and ISO 639-1 codes all map to
// the two-letter form; other BCP 47 tags are kept with canonical casing so
// they still match caption track codes exactly.
package language
