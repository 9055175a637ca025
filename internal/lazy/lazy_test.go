package lazy

import (
	"errors"
	"sync"
	"testing"
)

type entity struct {
	l     Loader
	title Field[string]
	year  Field[int]
	loads int
}

func (e *entity) load() error {
	e.loads++
	e.title.Set("Loaded Title")
	e.year.Set(1994)
	return nil
}

func TestGet_LoadsOnceOnFirstRead(t *testing.T) {
	e := &entity{}
	if e.l.State() != NotLoaded {
		t.Fatalf("初始状态应为 NotLoaded，实际 %v", e.l.State())
	}

	for i := 0; i < 3; i++ {
		y, ok, err := Get(&e.l, &e.year, e.load)
		if err != nil || !ok || y != 1994 {
			t.Fatalf("Get(year)=(%d,%v,%v)", y, ok, err)
		}
		title, ok, err := Get(&e.l, &e.title, e.load)
		if err != nil || !ok || title != "Loaded Title" {
			t.Fatalf("Get(title)=(%q,%v,%v)", title, ok, err)
		}
	}
	if e.loads != 1 {
		t.Fatalf("期望 load 1 次，实际 %d", e.loads)
	}
	if e.l.State() != Loaded {
		t.Fatalf("期望状态 Loaded，实际 %v", e.l.State())
	}
}

func TestGet_PrepopulatedFieldDoesNotLoad(t *testing.T) {
	e := &entity{}
	e.title.Set("From Search")

	title, ok, err := Get(&e.l, &e.title, e.load)
	if err != nil || !ok || title != "From Search" {
		t.Fatalf("Get(title)=(%q,%v,%v)", title, ok, err)
	}
	if e.loads != 0 || e.l.State() != NotLoaded {
		t.Fatalf("预填字段不应触发 load：loads=%d state=%v", e.loads, e.l.State())
	}

	// 读取另一个仍为空的字段：触发完整加载。
	if _, _, err := Get(&e.l, &e.year, e.load); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if e.loads != 1 || e.l.State() != Loaded {
		t.Fatalf("期望加载一次：loads=%d state=%v", e.loads, e.l.State())
	}
}

func TestGet_StateIsSetBeforeLoadRuns(t *testing.T) {
	e := &entity{}
	var seen State = -1
	load := func() error {
		// load 在锁内执行；这里直接读字段而不是调用 State()（后者会重入锁）。
		seen = e.l.state
		return nil
	}
	if _, ok, err := Get(&e.l, &e.title, load); err != nil || ok {
		t.Fatalf("页面缺失时字段应保持未设置：ok=%v err=%v", ok, err)
	}
	if seen != Loaded {
		t.Fatalf("load 执行时状态应已是 Loaded，实际 %v", seen)
	}

	// 已 Loaded 且字段仍为空：不再触发。
	calls := 0
	_, ok, err := Get(&e.l, &e.title, func() error { calls++; return nil })
	if err != nil || ok || calls != 0 {
		t.Fatalf("不应再次加载：ok=%v err=%v calls=%d", ok, err, calls)
	}
}

func TestGet_FailedLoadIsNotRetried(t *testing.T) {
	e := &entity{}
	e.title.Set("From Chart")
	boom := errors.New("boom")
	calls := 0
	load := func() error {
		calls++
		return boom
	}

	if _, _, err := Get(&e.l, &e.year, load); !errors.Is(err, boom) {
		t.Fatalf("期望 boom，实际 %v", err)
	}
	if _, _, err := Get(&e.l, &e.year, load); !errors.Is(err, boom) {
		t.Fatalf("第二次读取应返回同一个错误，实际 %v", err)
	}
	if calls != 1 {
		t.Fatalf("失败后不应重试：calls=%d", calls)
	}
	if e.l.State() != Failed || !errors.Is(e.l.Err(), boom) {
		t.Fatalf("期望 Failed + boom，实际 %v / %v", e.l.State(), e.l.Err())
	}

	// 已设置的字段仍可读。
	title, ok, err := Get(&e.l, &e.title, load)
	if err != nil || !ok || title != "From Chart" {
		t.Fatalf("Get(title)=(%q,%v,%v)", title, ok, err)
	}
	if err := e.l.Ensure(load); !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("Ensure 不应重试：err=%v calls=%d", err, calls)
	}
}

func TestEnsure_RunsOnlyWhenNotLoaded(t *testing.T) {
	e := &entity{}
	if err := e.l.Ensure(e.load); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := e.l.Ensure(e.load); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if e.loads != 1 {
		t.Fatalf("期望 load 1 次，实际 %d", e.loads)
	}
	if v, ok := Peek(&e.l, &e.title); !ok || v != "Loaded Title" {
		t.Fatalf("Peek=(%q,%v)", v, ok)
	}
}

func TestGet_ConcurrentFirstAccessLoadsOnce(t *testing.T) {
	e := &entity{}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if y, ok, err := Get(&e.l, &e.year, e.load); err != nil || !ok || y != 1994 {
				t.Errorf("Get(year)=(%d,%v,%v)", y, ok, err)
			}
		}()
	}
	wg.Wait()
	if e.loads != 1 {
		t.Fatalf("并发首读应只加载一次，实际 %d", e.loads)
	}
}
