package tree

import (
	"sync"
	"sync/atomic"
)

// Visitor transforms one node. It receives the node's value, its absolute
// path and a read-only reference tree for cross-node lookups.
type Visitor[T, U, R any] func(value T, abs Path, ref *Tree[R]) (U, error)

// MapWithPath applies fn to every node in sorted path order and returns a
// tree of the results with the same shape. It stops at the first error.
func MapWithPath[T, U, R any](t *Tree[T], ref *Tree[R], fn Visitor[T, U, R]) (*Tree[U], error) {
	return MapWithPathParallel(t, ref, fn, 1)
}

// MapWithPathParallel is MapWithPath spread over workers goroutines. Nodes
// are disjoint and ref must not be mutated while the map runs. When several
// nodes fail, the error of the first failing node in sorted path order is
// returned, so the result does not depend on scheduling.
func MapWithPathParallel[T, U, R any](t *Tree[T], ref *Tree[R], fn Visitor[T, U, R], workers int) (*Tree[U], error) {
	var (
		paths []Path
		nodes []*Tree[T]
	)
	t.walk(Path{}, func(p Path, n *Tree[T]) {
		paths = append(paths, p)
		nodes = append(nodes, n)
	})

	results := make([]U, len(nodes))
	errs := make([]error, len(nodes))

	if workers <= 1 || len(nodes) <= 1 {
		for i, n := range nodes {
			out, err := fn(n.Value, paths[i], ref)
			if err != nil {
				return nil, err
			}
			results[i] = out
		}
		return assemble(paths, results), nil
	}

	failed := int64(len(nodes)) // lowest failing index seen so far
	var (
		wg       sync.WaitGroup
		panicMu  sync.Mutex
		panicked any
	)
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicMu.Lock()
					if panicked == nil {
						panicked = r
					}
					panicMu.Unlock()
					for range jobs {
					}
				}
			}()
			for i := range jobs {
				if int64(i) > atomic.LoadInt64(&failed) {
					continue
				}
				out, err := fn(nodes[i].Value, paths[i], ref)
				if err != nil {
					errs[i] = err
					lowerFailed(&failed, int64(i))
					continue
				}
				results[i] = out
			}
		}()
	}

	for i := range nodes {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if panicked != nil {
		panic(panicked)
	}
	if idx := atomic.LoadInt64(&failed); idx < int64(len(nodes)) {
		return nil, errs[idx]
	}
	return assemble(paths, results), nil
}

// Map applies a total transform to every node.
func Map[T, U, R any](t *Tree[T], ref *Tree[R], fn func(value T, abs Path, ref *Tree[R]) U) *Tree[U] {
	return MapParallel(t, ref, fn, 1)
}

// MapParallel is Map spread over workers goroutines.
func MapParallel[T, U, R any](t *Tree[T], ref *Tree[R], fn func(value T, abs Path, ref *Tree[R]) U, workers int) *Tree[U] {
	out, err := MapWithPathParallel(t, ref, func(v T, abs Path, ref *Tree[R]) (U, error) {
		return fn(v, abs, ref), nil
	}, workers)
	if err != nil {
		panic("tree: total map returned an error: " + err.Error())
	}
	return out
}

func lowerFailed(failed *int64, idx int64) {
	for {
		cur := atomic.LoadInt64(failed)
		if idx >= cur || atomic.CompareAndSwapInt64(failed, cur, idx) {
			return
		}
	}
}

func assemble[U any](paths []Path, values []U) *Tree[U] {
	out := New[U]()
	for i, p := range paths {
		out.Insert(p, values[i])
	}
	return out
}
