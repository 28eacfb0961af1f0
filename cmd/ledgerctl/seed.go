package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"library-backend/internal/domains/title/model"
	"library-backend/internal/domains/title/repository"
)

var demoTitles = []model.Title{
	{ISBN: "9780441013593", Name: "Dune", Author: "Frank Herbert", Categories: []string{"sci-fi"}, CopiesTotal: 3},
	{ISBN: "9780553293357", Name: "Foundation", Author: "Isaac Asimov", Categories: []string{"sci-fi"}, CopiesTotal: 2},
	{ISBN: "9780451524935", Name: "1984", Author: "George Orwell", Categories: []string{"classic", "dystopia"}, CopiesTotal: 4},
	{ISBN: "9780547928227", Name: "The Hobbit", Author: "J.R.R. Tolkien", Categories: []string{"fantasy"}, CopiesTotal: 1},
	{ISBN: "9780141439518", Name: "Pride and Prejudice", Author: "Jane Austen", Categories: []string{"classic"}, CopiesTotal: 2},
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo titles, skipping ISBNs that already exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			_, err = seedTitles(ctx, repository.NewPostgresRepository(db.Pool), cmd.OutOrStdout())
			return err
		},
	}
}

type titleCreator interface {
	Create(ctx context.Context, t *model.Title) error
}

func seedTitles(ctx context.Context, repo titleCreator, out io.Writer) (int, error) {
	created := 0
	for _, demo := range demoTitles {
		t := demo
		t.ID = uuid.New()
		t.CopiesAvailable = t.CopiesTotal
		t.Version = 1

		err := repo.Create(ctx, &t)
		switch {
		case errors.Is(err, model.ErrISBNExists):
			fmt.Fprintf(out, "skip   %s (%s)\n", t.Name, t.ISBN)
		case err != nil:
			return created, fmt.Errorf("seed %s: %w", t.ISBN, err)
		default:
			created++
			fmt.Fprintf(out, "create %s (%s) %s\n", t.Name, t.ISBN, t.ID)
		}
	}
	return created, nil
}
