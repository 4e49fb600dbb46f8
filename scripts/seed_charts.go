// seed_charts.go loads chart documents and creates them through the ValueCharts API.
//
// Usage:
//
//	go run scripts/seed_charts.go -api http://localhost:8700 charts/*.json
//	go run scripts/seed_charts.go -example -dry-run
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
	"github.com/MikeSquared-Agency/ValueCharts/internal/testutil"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8700", "ValueCharts API base URL")
	example := flag.Bool("example", false, "also seed the built-in hotel chart")
	dryRun := flag.Bool("dry-run", false, "print charts without posting")
	flag.Parse()

	var charts []*model.Chart
	if *example {
		charts = append(charts, testutil.HotelChart())
	}
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		c, err := model.UnmarshalChart(data)
		if err != nil {
			log.Fatalf("parse %s: %v", path, err)
		}
		if err := c.Validate(); err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		charts = append(charts, c)
	}
	if len(charts) == 0 {
		log.Fatal("no charts to seed: pass chart files or -example")
	}

	if *dryRun {
		for i, c := range charts {
			fmt.Printf("[%d] %s (kind=%s, objectives=%d, alternatives=%d, users=%d)\n",
				i+1, c.Name, c.Kind, len(c.PrimitiveObjectives()), len(c.Alternatives), len(c.Users))
		}
		return
	}

	client := &http.Client{}
	created, skipped := 0, 0
	for _, c := range charts {
		c.ID = ""
		body, err := model.MarshalChart(c)
		if err != nil {
			log.Printf("skip %q: %v", c.Name, err)
			skipped++
			continue
		}
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/charts", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %q: %v", c.Name, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %q: %v", c.Name, err)
			skipped++
			continue
		}
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			log.Printf("created %q at %s", c.Name, resp.Header.Get("Location"))
			created++
		case http.StatusConflict:
			log.Printf("skip %q: name already in use", c.Name)
			skipped++
		default:
			log.Printf("skip %q: status %d", c.Name, resp.StatusCode)
			skipped++
		}
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}
