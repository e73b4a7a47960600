// Command fetch downloads and prints a group's timetable. It is a
// development aid for checking the scraper and parser against the live
// site without running the bot.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/schedule"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/scraper"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/scraper/dekanat"
)

func main() {
	var (
		group    = flag.String("group", "", "group name or numeric group id (required)")
		baseURL  = flag.String("base-url", "https://dekanat.nung.edu.ua", "timetable site base URL")
		timeout  = flag.Duration("timeout", 30*time.Second, "request timeout")
		asJSON   = flag.Bool("json", false, "print the parsed schedule as JSON")
		subjects = flag.Bool("subjects", false, "print the distinct subjects instead of the schedule")
	)
	flag.Parse()

	if *group == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	source := dekanat.New(scraper.NewClient(*timeout), *baseURL)

	doc, err := source.FetchSchedule(ctx, *group)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		os.Exit(1)
	}

	if !dekanat.HasSchedule(doc) {
		fmt.Fprintf(os.Stderr, "no schedule found for group %q\n", *group)
		os.Exit(1)
	}

	if *subjects {
		for _, name := range schedule.UniqueSubjects(doc) {
			fmt.Println(name)
		}
		return
	}

	sched, err := schedule.Parse(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sched); err != nil {
			fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	for _, day := range sched.Days {
		fmt.Printf("%s, %s\n", day.DayOfWeek, day.Date)
		for _, slot := range day.Slots {
			fmt.Printf("  %s (%s)\n", slot.Number, slot.Time)
			for _, lesson := range slot.Lessons {
				name := lesson.Subject
				if name == "" {
					name = "(unclassified)"
				}
				if lesson.Type != "" {
					name += " (" + lesson.Type + ")"
				}
				fmt.Printf("    %s\n", name)
			}
		}
	}
}
