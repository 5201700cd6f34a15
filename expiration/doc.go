/*
Package expiration extracts expiration dates from free-text WHOIS records and
normalizes them into the fixed-width “DD-mon-YYYY” form, such as
“02-jan-2017”.

Extraction works in two phases: first, an ordered set of label markers (like
“Expiry Date:” or “paid-till:”) isolates the text following the expiration
label. Next, this text is matched against an ordered set of date shapes,
bucketed by their field order (day-month-year, month-day-year and
year-month-day). The matching shape then tells where to find day, month and
year so they can be reassembled.

A matched label without any digits in its value (such as “Expiry Date: not
available”) is reported separately via [Extract], as callers treat such
records as unregistered subjects. A matched label with a value that doesn't
fit any shape yields no date; this is ambiguous evidence and never a
confirmation of a subject being down.
*/
package expiration
