// seed_study.go is a standalone script that loads a study snapshot into a running Frontier API.
//
// Usage:
//
//	go run scripts/seed_study.go -file study.yaml -api http://localhost:8700
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sort"

	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
	"github.com/MikeSquared-Agency/Frontier/internal/snapshot"
)

type studyRequest struct {
	Name       string   `json:"name"`
	Directions []string `json:"directions"`
}

type trialRequest struct {
	State  string                 `json:"state"`
	Values []float64              `json:"values,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
}

func main() {
	file := flag.String("file", "study.yaml", "path to the snapshot (.yaml or .json)")
	apiURL := flag.String("api", "http://localhost:8700", "Frontier API base URL")
	clientID := flag.String("client", "seed", "X-Client-ID header value")
	dryRun := flag.Bool("dry-run", false, "print trials without posting")
	flag.Parse()

	snap, err := snapshot.Load(*file)
	if err != nil {
		log.Fatalf("load snapshot: %v", err)
	}

	// The service numbers trials in creation order, so post them in number
	// order. Gaps in the file's numbering are not preserved.
	trials := snap.Trials
	sort.SliceStable(trials, func(i, j int) bool { return *trials[i].Number < *trials[j].Number })

	log.Printf("parsed %d trials from %s", len(trials), *file)

	if *dryRun {
		for _, tr := range trials {
			fmt.Printf("[%d] %s %v\n", *tr.Number, tr.State, tr.Values)
		}
		return
	}

	client := &http.Client{}
	var study struct {
		ID string `json:"study_id"`
	}
	status, err := post(client, *apiURL+"/api/v1/studies", *clientID, studyRequest{
		Name:       snap.Name,
		Directions: pareto.DirectionStrings(snap.Directions),
	}, &study)
	if err != nil || status != http.StatusCreated {
		log.Fatalf("create study: status %d: %v", status, err)
	}
	log.Printf("created study %s", study.ID)

	created, skipped := 0, 0
	for _, tr := range trials {
		status, err := post(client, *apiURL+"/api/v1/studies/"+study.ID+"/trials", *clientID, trialRequest{
			State:  string(tr.State),
			Values: tr.Values,
			Params: tr.Params,
		}, nil)
		if err != nil || status != http.StatusCreated {
			log.Printf("skip trial %d: status %d: %v", *tr.Number, status, err)
			skipped++
			continue
		}
		created++
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}

func post(client *http.Client, url, clientID string, body, out interface{}) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest("POST", url, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", clientID)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
