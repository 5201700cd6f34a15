/*
Package types defines reachdig's information model, which mainly revolves
around [Subject] and [TestResult], as well as the closed sets of availability
verdicts ([Status]) and evidence sources ([Source]).

# Verdicts

A [TestResult] carries exactly one of [Up], [Down] or [Invalid] as its
consensus verdict. [PotentiallyUp] and [PotentiallyDown] are analytic
side-signals: they record evidence that contradicted or reinforced the verdict
without replacing it, for instance an HTTP 200 answer from a host whose DNS
records vanished.

Loosely-typed status strings, as found in older datasets, are mapped onto the
enums exclusively via [StatusFromSignal].

# Value semantics

TestResults cross goroutine boundaries between the batch coordinator and its
workers. They are passed by value and never modified after creation; use
[TestResult.With] to derive a superseding result.
*/
package types
