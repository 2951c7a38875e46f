// Package guest binds the dispatcher to the evaluator module's single entry
// point and its single host import.
//
// The host protocol for one evaluation is:
//
//  1. ptr := allocate(len(request))
//  2. write the request JSON at ptr
//  3. run(ptr, len(request)); the module calls evaluator.output(p, n)
//     exactly once, and the host copies n bytes at p before returning
//  4. release(ptr, len(request))
package guest
