package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/lending-ledger/ledger"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// ErrInvalidSettings is returned by NewGenerator.
var ErrInvalidSettings = errors.New("invalid load generator settings")

// Settings shape the generated traffic.
type Settings struct {
	Workers       int
	Duration      time.Duration
	Users         int
	Books         int
	Copies        int
	CheckInterval time.Duration
}

// DefaultSettings returns settings which produce plenty of contention on a laptop.
func DefaultSettings() Settings {
	return Settings{
		Workers:       16,
		Duration:      30 * time.Second,
		Users:         50,
		Books:         20,
		Copies:        2,
		CheckInterval: 5 * time.Second,
	}
}

type operation string

const (
	opCreateLoan        operation = "create_loan"
	opReturnLoan        operation = "return_loan"
	opExtendLoan        operation = "extend_loan"
	opCreateReservation operation = "create_reservation"
	opCancelReservation operation = "cancel_reservation"
)

// weights sum to 100.
var operationWeights = []struct {
	op     operation
	weight int
}{
	{opCreateLoan, 40},
	{opReturnLoan, 30},
	{opExtendLoan, 10},
	{opCreateReservation, 15},
	{opCancelReservation, 5},
}

// Report is the outcome of a Generator run.
type Report struct {
	Duration   time.Duration
	Outcomes   map[operation]map[string]int
	Checks     int
	Violations []string
}

// Log writes the report as structured log records.
func (r Report) Log(ctx context.Context, logger shell.ContextualLogger) {
	for _, op := range slices.Sorted(maps.Keys(r.Outcomes)) {
		args := []any{"operation", string(op)}
		for _, kind := range slices.Sorted(maps.Keys(r.Outcomes[op])) {
			args = append(args, kind, r.Outcomes[op][kind])
		}
		logger.InfoContext(ctx, "load generator outcomes", args...)
	}

	for _, violation := range r.Violations {
		logger.ErrorContext(ctx, "invariant violated", "violation", violation)
	}

	logger.InfoContext(ctx, "load generator finished",
		"duration", r.Duration.String(),
		"checks", r.Checks,
		"violations", len(r.Violations),
	)
}

// Generator runs random lending operations from many workers against one Ledger.
type Generator struct {
	ledger   *ledger.Ledger
	settings Settings
	logger   shell.ContextualLogger

	users []uuid.UUID
	books []uuid.UUID

	mu         sync.Mutex
	outcomes   map[operation]map[string]int
	violations []string
	checks     int
}

// NewGenerator validates the settings.
func NewGenerator(l *ledger.Ledger, settings Settings, logger shell.ContextualLogger) (*Generator, error) {
	if settings.Workers < 1 || settings.Users < 1 || settings.Books < 1 || settings.Copies < 1 {
		return nil, fmt.Errorf("%w: workers, users, books and copies must be positive", ErrInvalidSettings)
	}

	if settings.Duration <= 0 || settings.CheckInterval <= 0 {
		return nil, fmt.Errorf("%w: duration and check interval must be positive", ErrInvalidSettings)
	}

	return &Generator{
		ledger:   l,
		settings: settings,
		logger:   logger,
		outcomes: make(map[operation]map[string]int),
	}, nil
}

// Run registers the users and books, generates traffic for the configured duration
// and finishes with a full invariant check.
func (g *Generator) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	if err := g.seed(ctx); err != nil {
		return Report{}, err
	}

	trafficCtx, cancel := context.WithTimeout(ctx, g.settings.Duration)
	defer cancel()

	group, groupCtx := errgroup.WithContext(trafficCtx)
	for i := 0; i < g.settings.Workers; i++ {
		group.Go(func() error {
			g.work(groupCtx)
			return nil
		})
	}
	group.Go(func() error {
		g.checkPeriodically(groupCtx)
		return nil
	})

	if err := group.Wait(); err != nil {
		return Report{}, err
	}

	g.check(context.WithoutCancel(ctx))

	g.mu.Lock()
	defer g.mu.Unlock()

	return Report{
		Duration:   time.Since(start),
		Outcomes:   g.outcomes,
		Checks:     g.checks,
		Violations: slices.Clone(g.violations),
	}, nil
}

func (g *Generator) seed(ctx context.Context) error {
	for i := 0; i < g.settings.Users; i++ {
		userID := uuid.New()
		if err := g.ledger.RegisterUser(ctx, userID, fmt.Sprintf("user %d", i+1)); err != nil {
			return fmt.Errorf("register user: %w", err)
		}
		g.users = append(g.users, userID)
	}

	for i := 0; i < g.settings.Books; i++ {
		bookID := uuid.New()
		if err := g.ledger.RegisterBook(ctx, bookID, fmt.Sprintf("book %d", i+1), g.settings.Copies); err != nil {
			return fmt.Errorf("register book: %w", err)
		}
		g.books = append(g.books, bookID)
	}

	g.logger.InfoContext(ctx, "load generator seeded", "users", len(g.users), "books", len(g.books))

	return nil
}

func (g *Generator) work(ctx context.Context) {
	for ctx.Err() == nil {
		op := pickOperation(rand.IntN(100))
		err := g.execute(ctx, op)

		if ctx.Err() != nil {
			return
		}

		g.record(op, err)
	}
}

func (g *Generator) execute(ctx context.Context, op operation) error {
	userID := g.users[rand.IntN(len(g.users))]
	bookID := g.books[rand.IntN(len(g.books))]

	switch op {
	case opCreateLoan:
		_, err := g.ledger.CreateLoan(ctx, ledger.CreateLoanRequest{UserID: userID, BookID: bookID})
		return err

	case opReturnLoan, opExtendLoan:
		loanID, found, err := g.activeLoanOf(ctx, userID)
		if err != nil || !found {
			return err
		}

		if op == opReturnLoan {
			_, err = g.ledger.ReturnLoan(ctx, loanID, time.Time{})
		} else {
			_, err = g.ledger.ExtendLoanByDefault(ctx, loanID)
		}

		return err

	case opCreateReservation:
		_, err := g.ledger.CreateReservation(ctx, ledger.CreateReservationRequest{UserID: userID, BookID: bookID})
		return err

	case opCancelReservation:
		reservations, err := g.ledger.ReservationsByUser(ctx, userID)
		if err != nil {
			return err
		}

		for _, reservation := range reservations.Reservations {
			if reservation.IsReserved() {
				_, err = g.ledger.CancelReservation(ctx, uuid.MustParse(reservation.ReservationID))
				return err
			}
		}

		return nil
	}

	return nil
}

func (g *Generator) activeLoanOf(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	loans, err := g.ledger.LoansByUser(ctx, userID, true)
	if err != nil || len(loans.Loans) == 0 {
		return uuid.Nil, false, err
	}

	loan := loans.Loans[rand.IntN(len(loans.Loans))]

	return uuid.MustParse(loan.LoanID), true, nil
}

func (g *Generator) record(op operation, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcomes[op] == nil {
		g.outcomes[op] = make(map[string]int)
	}

	g.outcomes[op][core.KindOf(err)]++
}

func (g *Generator) checkPeriodically(ctx context.Context) {
	ticker := time.NewTicker(g.settings.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.check(ctx)
		}
	}
}

// check reads with eventual consistency, it sees committed events only.
func (g *Generator) check(ctx context.Context) {
	policy := g.ledger.Policy()
	var violations []string

	for _, bookID := range g.books {
		availability, err := g.ledger.BookAvailability(ctx, bookID)
		if err != nil {
			continue
		}

		if availability.CopiesAvailable < 0 {
			violations = append(violations, fmt.Sprintf("book %s has %d available copies", bookID, availability.CopiesAvailable))
		}

		if availability.ActiveLoans > g.settings.Copies {
			violations = append(violations, fmt.Sprintf("book %s has %d active loans for %d copies",
				bookID, availability.ActiveLoans, g.settings.Copies))
		}
	}

	for _, userID := range g.users {
		if loans, err := g.ledger.LoansByUser(ctx, userID, true); err == nil && loans.ActiveCount > policy.MaxBooksPerUser {
			violations = append(violations, fmt.Sprintf("user %s has %d active loans", userID, loans.ActiveCount))
		}

		reservations, err := g.ledger.ReservationsByUser(ctx, userID)
		if err == nil && reservations.OpenCount > policy.MaxReservationsPerUser {
			violations = append(violations, fmt.Sprintf("user %s has %d open reservations", userID, reservations.OpenCount))
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.checks++
	g.violations = append(g.violations, violations...)
}

func pickOperation(roll int) operation {
	for _, w := range operationWeights {
		if roll < w.weight {
			return w.op
		}
		roll -= w.weight
	}

	return opCreateLoan
}
