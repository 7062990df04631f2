package main

import (
	"fmt"
	"strconv"

	"github.com/MrEthical07/quizClient/api"
	"github.com/spf13/cobra"
)

func newLeaderboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the user ranking",
		Args:  cobra.NoArgs,
		RunE:  a.runLeaderboard,
	}
}

func newQuizzesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "List quizzes",
		Long: `List published quizzes. With --mine the quizzes authored by the logged-in
user are listed instead, drafts included.

Examples:
  quizctl quizzes
  quizctl quizzes --mine --json`,
		Args: cobra.NoArgs,
		RunE: a.runQuizzes,
	}
	cmd.Flags().Bool("mine", false, "list your own quizzes")
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List quiz categories",
		Args:  cobra.NoArgs,
		RunE:  a.runCategories,
	}
}

func (a *app) runLeaderboard(cmd *cobra.Command, _ []string) error {
	board, err := a.client.Leaderboard(cmd.Context())
	if err != nil {
		return err
	}
	if a.jsonOut() {
		return printJSON(a.out, board)
	}

	if len(board.Users) == 0 {
		fmt.Fprintln(a.out, "No users ranked yet")
		return nil
	}
	w := newTable(a.out)
	printTableHeader(w, "#", "USERNAME", "RATING")
	for i, u := range board.Users {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, truncate(u.Username, 24), strconv.FormatFloat(u.Rating, 'f', -1, 64))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if board.Position > 0 {
		fmt.Fprintf(a.out, "\nYour position: %d\n", board.Position)
	}
	return nil
}

func (a *app) runQuizzes(cmd *cobra.Command, _ []string) error {
	mine, _ := cmd.Flags().GetBool("mine")

	var (
		quizzes []api.RatedQuiz
		err     error
	)
	if mine {
		quizzes, err = a.client.PersonalQuizzes(cmd.Context())
	} else {
		quizzes, err = a.client.Quizzes(cmd.Context())
	}
	if err != nil {
		return err
	}
	if a.jsonOut() {
		return printJSON(a.out, quizzes)
	}

	if len(quizzes) == 0 {
		fmt.Fprintln(a.out, "No quizzes found")
		return nil
	}
	w := newTable(a.out)
	printTableHeader(w, "ID", "TITLE", "CATEGORY", "DIFFICULTY", "STATUS", "RATING")
	for _, q := range quizzes {
		category, difficulty := "-", "-"
		if q.Quiz.Category != nil {
			category = q.Quiz.Category.Name
		}
		if q.Quiz.Difficulty != nil {
			difficulty = q.Quiz.Difficulty.Name
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.1f\n",
			q.Quiz.QuizID,
			truncate(q.Quiz.Title, 32),
			category,
			difficulty,
			q.Quiz.Status,
			q.Rating,
		)
	}
	return w.Flush()
}

func (a *app) runCategories(cmd *cobra.Command, _ []string) error {
	categories, err := a.client.Categories(cmd.Context())
	if err != nil {
		return err
	}
	if a.jsonOut() {
		return printJSON(a.out, categories)
	}

	w := newTable(a.out)
	printTableHeader(w, "ID", "NAME")
	for _, c := range categories {
		fmt.Fprintf(w, "%d\t%s\n", c.CategoryID, c.Name)
	}
	return w.Flush()
}
