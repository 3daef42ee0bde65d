// Package main seeds a QueryDeck database with demo users and queries and
// prints access tokens for poking at the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/querydeckapp/querydeck-server/internal/auth"
	"github.com/querydeckapp/querydeck-server/internal/domain"
	"github.com/querydeckapp/querydeck-server/internal/id"
	"github.com/querydeckapp/querydeck-server/internal/service"
	"github.com/querydeckapp/querydeck-server/internal/store"
)

type seedUser struct {
	username string
	role     domain.Role
}

type seedQuery struct {
	creator     int // index into users
	title       string
	description string
	text        string
	tags        []string
	private     bool
}

var users = []seedUser{
	{"ada", domain.RoleAdmin},
	{"grace", domain.RoleMember},
	{"edsger", domain.RoleMember},
}

var queries = []seedQuery{
	{
		creator:     0,
		title:       "Weekly active users",
		description: "Users seen in the last 7 days, grouped by day.",
		text:        "SELECT date_trunc('day', last_seen) AS day, count(*) FROM users WHERE last_seen > now() - interval '7 days' GROUP BY 1 ORDER BY 1",
		tags:        []string{"users", "activity"},
	},
	{
		creator:     1,
		title:       "Revenue by region",
		description: "Monthly revenue split by billing region.",
		text:        "SELECT region, date_trunc('month', paid_at) AS month, sum(amount_cents) / 100.0 FROM payments GROUP BY 1, 2",
		tags:        []string{"finance", "revenue"},
	},
	{
		creator:     1,
		title:       "Churn candidates",
		description: "Accounts with no activity in 30 days and an expiring plan.",
		text:        "SELECT a.id, a.name FROM accounts a WHERE a.last_active < now() - interval '30 days' AND a.plan_expires_at < now() + interval '14 days'",
		tags:        []string{"retention"},
	},
	{
		creator:     2,
		title:       "Slowest endpoints",
		description: "p95 latency per endpoint over the last day.",
		text:        "SELECT endpoint, percentile_cont(0.95) WITHIN GROUP (ORDER BY duration_ms) FROM request_log WHERE ts > now() - interval '1 day' GROUP BY endpoint ORDER BY 2 DESC",
		tags:        []string{"ops", "latency"},
	},
	{
		creator: 2,
		title:   "My scratch query",
		text:    "SELECT * FROM scratch LIMIT 10",
		private: true,
	},
}

func main() {
	dataPath := flag.String("data-path", "", "Base path for data storage (required)")
	flag.Parse()

	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -data-path <dir>")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(*dataPath, logger); err != nil {
		logger.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(dataPath string, logger *slog.Logger) error {
	st, err := store.New(dataPath+"/db", logger)
	if err != nil {
		return err
	}
	defer st.Close()

	keyHex, err := auth.LoadOrGenerateKey(dataPath)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(keyHex, 24*time.Hour)
	if err != nil {
		return err
	}

	catalog := service.NewCatalogService(st, st, logger)
	ctx := context.Background()

	seeded := make([]*domain.User, 0, len(users))
	for _, su := range users {
		now := time.Now()
		user := &domain.User{
			ID:        id.MustGenerate("usr"),
			Username:  su.username,
			Role:      su.role,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := st.CreateUser(user); err != nil {
			return fmt.Errorf("create user %s: %w", su.username, err)
		}
		seeded = append(seeded, user)

		token, err := tokens.GenerateAccessToken(user)
		if err != nil {
			return fmt.Errorf("token for %s: %w", su.username, err)
		}
		fmt.Printf("%s (%s, %s):\n  %s\n\n", user.Username, user.ID, user.Role, token)
	}

	for _, sq := range queries {
		created, err := catalog.Create(ctx, service.CreateQueryRequest{
			Title:       sq.title,
			Description: sq.description,
			Creator:     seeded[sq.creator].ID,
			Private:     sq.private,
			Text:        sq.text,
			Tags:        sq.tags,
		})
		if err != nil {
			return fmt.Errorf("create query %q: %w", sq.title, err)
		}
		logger.Info("Seeded query", "id", created.ID, "title", created.Title, "creator", created.Username)
	}

	// A little social activity so listings have non-zero counters.
	public, err := catalog.ListPublic(ctx, 100, 1)
	if err != nil {
		return err
	}
	for _, q := range public {
		for _, u := range seeded {
			if u.ID == q.Creator || !starWorthy(q.Title) {
				continue
			}
			if _, err := catalog.Star(ctx, q.ID, u.ID); err != nil {
				logger.Warn("Seed star failed", "query_id", q.ID, "user_id", u.ID, "error", err)
			}
		}
	}

	logger.Info("Seeding complete", "users", len(seeded), "queries", len(queries))
	return nil
}

// starWorthy keeps the seeded star distribution uneven so ordered listings
// have something to show.
func starWorthy(title string) bool {
	return len(title)%2 == 0
}
