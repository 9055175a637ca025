// Package lazy 实现实体的“首次读取时加载一次”契约。
//
// 每个实体持有一个 Loader 和若干 Field。读取某个字段时：
//   - Loader 仍是 NotLoaded，且该字段尚未被设置 => 先把状态置为 Loaded，再执行 load
//   - 否则直接返回字段当前值
//
// 判断是按字段做的：构造时预先填好的字段可以被读取而不触发 load；
// 之后读取另一个仍为空的字段，仍然会触发 load。
//
// load 失败后状态为 Failed，不会重试；之后读取仍为空的字段会拿到同一个错误。
package lazy

import "sync"

// State 是 Loader 的状态机：NotLoaded -> Loaded（-> Failed）。
type State int

const (
	NotLoaded State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loader 是每个实体一份的加载状态。零值可用。
//
// Loader 内部的互斥锁同时保护实体的所有 Field：load 在锁内执行，
// 因此 load 可以直接写字段，但不能再调用同一实体的访问器（会死锁）。
type Loader struct {
	mu    sync.Mutex
	state State
	err   error
}

// State 返回当前状态（测试与展示用）。
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err 返回失败时记录的错误；未失败时为 nil。
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Ensure 在尚未加载时执行 load（用于显式的 Load 调用）。已加载则什么都不做；
// 已失败则返回记录的错误。
func (l *Loader) Ensure(load func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == NotLoaded {
		l.runLocked(load)
	}
	return l.err
}

// Do 在锁内执行 fn，用于在加载流程之外安全地修改字段（例如按需补抓某个页面）。
func (l *Loader) Do(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

func (l *Loader) runLocked(load func() error) {
	// 先置位再执行：load 内部对字段的赋值不应再次触发加载。
	l.state = Loaded
	if err := load(); err != nil {
		l.state = Failed
		l.err = err
	}
}

// Field 是一个“未设置 / 已设置”两态的字段。
type Field[T any] struct {
	v   T
	set bool
}

// Set 设置字段的值。
func (f *Field[T]) Set(v T) {
	f.v = v
	f.set = true
}

// Get 返回字段值以及是否已设置；不会触发加载。
func (f *Field[T]) Get() (T, bool) { return f.v, f.set }

func (f *Field[T]) IsSet() bool { return f.set }

// Get 读取字段；必要时先执行一次 load。
//
// 返回值 ok 表示字段是否已设置（可选字段在页面缺失时保持未设置）。
// 只有当字段仍未设置、且 Loader 处于 Failed 时才返回错误。
func Get[T any](l *Loader, f *Field[T], load func() error) (v T, ok bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == NotLoaded && !f.set {
		l.runLocked(load)
	}
	if !f.set && l.state == Failed {
		var zero T
		return zero, false, l.err
	}
	return f.v, f.set, nil
}

// Peek 读取字段但从不触发加载（用于展示预填的显示字段）。
func Peek[T any](l *Loader, f *Field[T]) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return f.v, f.set
}
