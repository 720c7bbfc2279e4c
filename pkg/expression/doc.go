// Package expression evaluates the condition expressions attached to test descriptors,
// e.g. `os == "linux" && !debug` or `(bits == 32 || asan) && os != 'win'`.
//
// The language has integer, string and boolean literals, identifiers resolved against a
// values mapping, the comparison operators == != < > <= >=, logical && || and !, and
// parentheses. ! binds tighter than the comparisons, which bind tighter than &&, which
// binds tighter than ||. An identifier missing from the values mapping evaluates to nil
// unless the Evaluator is strict, in which case evaluation fails with an *UndefinedError.
//
// nil, false, 0 and "" are false; every other value is true.
package expression
