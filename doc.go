// Package mst parses arithmetic expressions into trees which are generic over
// an algebra and turns them into values, either by interpreting them or by
// compiling them through a back end.
//
// The syntax is ordinary infix notation. "2 + 2^3*2" is "2 + ((2^3) * 2)",
// "a^b^c" is "a^(b^c)", and "-2^2" is "(-2)^2" because the unary operators
// bind tighter than exponentiation. A name followed by a bracket is a call:
// "sin(x)" and "log(x, 2)" become unary and binary operation nodes named "sin"
// and "log". Any other name is a symbol.
//
// A Tree knows nothing about numbers. Bind converts one to a Typed tree over
// a specific Algebra, Fold evaluates every subtree that has no free symbols,
// and a Backend emits an Expression that can be invoked many times with
// different bindings. The bytecode and wasm subpackages provide back ends;
// Interpreted is always available as the fallback.
package mst
