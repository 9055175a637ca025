// Package app 放 CLI 子命令共用的编排逻辑。
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/imdbx/internal/imdb"
)

// LoadPeople 用固定数量的 worker 并发加载人物页，返回加载失败的人数。
//
// 单个人物失败只记 warn；失败的人物在快照里只剩 ID。
// 重复出现的人物（同一指针）只提交一次。
func LoadPeople(ctx context.Context, people []*imdb.Person, workers int, log zerolog.Logger) int {
	if workers < 1 {
		workers = 1
	}

	seen := make(map[*imdb.Person]struct{}, len(people))
	queue := make([]*imdb.Person, 0, len(people))
	for _, p := range people {
		if p == nil {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		queue = append(queue, p)
	}
	if workers > len(queue) {
		workers = len(queue)
	}

	jobs := make(chan *imdb.Person)
	results := make(chan error, len(queue))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				err := p.Load(ctx)
				if err != nil {
					log.Warn().Err(err).Str("person", p.ID()).Msg("person name unavailable")
				}
				results <- err
			}
		}()
	}

	go func() {
		for _, p := range queue {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	failed := 0
	for err := range results {
		if err != nil {
			failed++
		}
	}
	return failed
}
