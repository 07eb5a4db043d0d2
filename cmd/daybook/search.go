package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/stores"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over live entries",
	Long: `Search titles and content. Words are prefix-matched and results are ranked by relevance.
With --tag, --mood, --from or --to the search is filtered and returned newest first;
the query is then optional.

Examples:
  daybook search sunrise
  daybook search --tag travel --mood great
  daybook search coffee --from 2024-03-01 --to 2024-03-31`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()
		tagNames, _ := flags.GetStringSlice("tag")
		mood, _ := flags.GetString("mood")
		from, _ := flags.GetString("from")
		to, _ := flags.GetString("to")
		limit := cfg.Search.Limit
		if flags.Changed("limit") {
			limit, _ = flags.GetInt("limit")
		}

		var query string
		if len(args) == 1 {
			query = args[0]
		}

		svc, mgr, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer mgr.Close()

		var f journal.SearchFilters
		if f.TagIDs, err = resolveTagIDs(ctx, svc, tagNames, false); err != nil {
			return err
		}
		if mood != "" {
			if f.Mood, err = journal.ParseMood(mood); err != nil {
				return err
			}
		}
		if from != "" {
			if f.StartDate, err = parseDay(from, false); err != nil {
				return err
			}
		}
		if to != "" {
			if f.EndDate, err = parseDay(to, true); err != nil {
				return err
			}
		}
		if strings.TrimSpace(query) == "" && !stores.HasFilters(f) {
			return fmt.Errorf("a query or at least one filter is required")
		}

		results, err := stores.NewSearchStore(svc.Search).Perform(ctx, query, f, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return printResults(cmd.OutOrStdout(), results)
	},
}

type calendarMonth struct {
	Year     int                    `json:"year"`
	Month    int                    `json:"month"`
	Days     []int                  `json:"days"`
	Moods    map[int][]journal.Mood `json:"moods"`
	Dominant map[int]journal.Mood   `json:"dominant"`
}

var calendarCmd = &cobra.Command{
	Use:   "calendar [YYYY-MM]",
	Short: "Show which days of a month have entries and their moods",
	Long: `Lists the days of the month (the current month by default) that have live entries,
with each day's moods in creation order and the dominant mood.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		month := time.Now()
		if len(args) == 1 {
			t, err := time.ParseInLocation("2006-01", args[0], time.Local)
			if err != nil {
				return fmt.Errorf("invalid month %q (want YYYY-MM)", args[0])
			}
			month = t
		}

		svc, mgr, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer mgr.Close()

		days, err := svc.Search.GetDatesWithEntries(ctx, month.Year(), month.Month())
		if err != nil {
			return err
		}
		moods, err := svc.Search.GetMoodsByDate(ctx, month.Year(), month.Month())
		if err != nil {
			return err
		}
		out := calendarMonth{
			Year:     month.Year(),
			Month:    int(month.Month()),
			Days:     days,
			Moods:    moods,
			Dominant: make(map[int]journal.Mood, len(moods)),
		}
		for day, m := range moods {
			out.Dominant[day] = journal.DominantMood(m)
		}
		return printCalendar(cmd.OutOrStdout(), out)
	},
}

func printCalendar(w io.Writer, c calendarMonth) error {
	if ok, err := render(w, c); ok {
		return err
	}
	fmt.Fprintf(w, "%s %d\n", time.Month(c.Month), c.Year)
	if len(c.Days) == 0 {
		fmt.Fprintln(w, "No entries this month.")
		return nil
	}
	sort.Ints(c.Days)
	for _, day := range c.Days {
		moods := make([]string, len(c.Moods[day]))
		for i, m := range c.Moods[day] {
			moods[i] = string(m)
		}
		if len(moods) == 0 {
			fmt.Fprintf(w, "  %2d\n", day)
			continue
		}
		fmt.Fprintf(w, "  %2d  %-8s  %s\n", day, c.Dominant[day], strings.Join(moods, " "))
	}
	return nil
}

func initSearchCmd() {
	searchCmd.Flags().StringSlice("tag", nil, "Only entries with any of these tag names (repeatable)")
	searchCmd.Flags().String("mood", "", "Only entries with this mood")
	searchCmd.Flags().String("from", "", "Only entries created on or after this day (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "Only entries created on or before this day (YYYY-MM-DD)")
	searchCmd.Flags().Int("limit", 0, "Maximum number of results (default from config, 50)")
}
