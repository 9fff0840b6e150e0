// feedbench seeds a friend graph with posts and measures the write path
// (like toggles) and the paged feed read under concurrency.
//
//	N=20000 CONC=8 PAGE=50 go run ./cmd/feedbench
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/social-core/internal/config"
	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
	"github.com/d60-Lab/social-core/pkg/pagination"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	cfgPath := flag.String("config", "", "path to config file")
	flag.Parse()
	cfg := must(config.Load(*cfgPath))

	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DB.DSN)
	default:
		dialector = sqlite.Open(cfg.DB.DSN)
	}
	db := must(gorm.Open(dialector, &gorm.Config{}))
	if cfg.DB.Driver != "postgres" {
		must(0, db.AutoMigrate(&model.User{}, &model.Post{}, &model.PostLike{}, &model.Friendship{}))
	}

	postRepo := repository.NewPostRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	ctx := context.Background()

	N := envInt("N", 10000)
	CONC := envInt("CONC", 1)
	PAGE := envInt("PAGE", 50)

	// seed: viewer befriends everyone, every friend posts once
	viewer := model.User{ID: "viewer", Name: "viewer", Username: "viewer", Email: "viewer@example.com", TokenIdentifier: "t|viewer"}
	_ = db.Where("id = ?", viewer.ID).FirstOrCreate(&viewer).Error

	users := make([]model.User, N)
	posts := make([]model.Post, N)
	edges := make([]model.Friendship, N)
	now := time.Now()
	for i := 0; i < N; i++ {
		id := uuid.New().String()
		users[i] = model.User{ID: id, Name: "u" + id[:8], Username: "u" + id[:8], Email: id[:8] + "@example.com", TokenIdentifier: "t|" + id}
		posts[i] = model.Post{ID: uuid.New().String(), AuthorID: id, Message: "post " + id[:8], Privacy: model.PrivacyFriends}
		edges[i] = model.Friendship{ID: uuid.New().String(), UserID: id, FriendID: viewer.ID, PairKey: model.PairKey(id, viewer.ID), Status: model.FriendshipAccepted, AcceptedAt: &now}
	}
	const batch = 1000
	for i := 0; i < N; i += batch {
		end := i + batch
		if end > N {
			end = N
		}
		must(0, db.Create(users[i:end]).Error)
		must(0, db.Create(posts[i:end]).Error)
		must(0, db.Create(edges[i:end]).Error)
	}

	friendIDs := must(friendshipRepo.AcceptedFriendIDs(ctx, viewer.ID))

	// write path: CONC workers toggling likes on random posts
	likeRecs := make([]time.Duration, N)
	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)
	workers := CONC
	if workers > N {
		workers = N
	}
	var wg sync.WaitGroup
	t0 := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := range feed {
				st := time.Now()
				_, _ = postRepo.ToggleLike(ctx, posts[rng.Intn(len(posts))].ID, viewer.ID)
				likeRecs[i] = time.Since(st)
			}
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()
	likeDur := time.Since(t0)

	// read path: walk the whole feed page by page
	t1 := time.Now()
	pages := 0
	rows := 0
	var cur *pagination.Cursor
	for {
		batchRows := must(postRepo.ListFeed(ctx, &viewer.ID, friendIDs, cur, PAGE))
		pages++
		if len(batchRows) <= PAGE {
			rows += len(batchRows)
			break
		}
		batchRows = batchRows[:PAGE]
		rows += len(batchRows)
		last := batchRows[len(batchRows)-1]
		cur = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	walkDur := time.Since(t1)

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)
	fmt.Printf("Like toggles total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		likeDur, likeDur/time.Duration(N), pct(likeRecs, 0.50), pct(likeRecs, 0.95), pct(likeRecs, 0.99))
	fmt.Printf("Feed walk: %d rows in %d pages, total %v, per page: %v\n",
		rows, pages, walkDur, walkDur/time.Duration(pages))
}
