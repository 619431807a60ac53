// Command seeder drives a running asset-maintenance API with demo data: it
// registers an operator, creates categories and assets, and walks the first
// maintenance cycle of each asset through findings and confirmation so the
// sequential gating is visible in the listings.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

var authToken string

type checklistItem struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

type category struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	FrequencyPerYear int             `json:"frequency_per_year"`
	Checklists       []checklistItem `json:"checklists"`
}

type asset struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

type maintenanceRecord struct {
	ID             string    `json:"id"`
	AssetItemID    string    `json:"asset_item_id"`
	EstimationDate time.Time `json:"estimation_date"`
	Status         string    `json:"status"`
	IsActionable   bool      `json:"is_actionable"`
	Checklists     []struct {
		ChecklistID string `json:"checklist_id"`
	} `json:"checklists"`
}

var demoCategories = []category{
	{
		Name:             "Diesel generator",
		FrequencyPerYear: 4,
		Checklists: []checklistItem{
			{Label: "Oil level", Description: "Check and top up engine oil"},
			{Label: "Coolant", Description: "Check coolant level and hoses"},
			{Label: "Load test", Description: "Run under load for 30 minutes"},
		},
	},
	{
		Name:             "Air conditioner",
		FrequencyPerYear: 2,
		Checklists: []checklistItem{
			{Label: "Filter", Description: "Clean or replace air filter"},
			{Label: "Refrigerant", Description: "Check refrigerant pressure"},
		},
	},
	{
		Name:             "Fire extinguisher",
		FrequencyPerYear: 1,
		Checklists: []checklistItem{
			{Label: "Pressure gauge", Description: "Needle in the green zone"},
			{Label: "Seal", Description: "Tamper seal intact"},
		},
	},
}

func request(method, url string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewBuffer(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func decode(resp *http.Response, out interface{}, wantStatus int) error {
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func login(apiURL string) error {
	creds := map[string]string{
		"username": envOr("SEED_USERNAME", "seed-operator"),
		"password": envOr("SEED_PASSWORD", "seed-password-1"),
	}

	register := map[string]string{
		"username":  creds["username"],
		"password":  creds["password"],
		"email":     creds["username"] + "@example.com",
		"full_name": "Seed Operator",
		"role":      "supervisor",
	}
	resp, err := request(http.MethodPost, apiURL+"/api/auth/register", register)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	var auth struct {
		Token string `json:"token"`
	}
	if err := decode(resp, &auth, http.StatusCreated); err != nil {
		// user probably exists already, fall back to login
		resp, err = request(http.MethodPost, apiURL+"/api/auth/login", creds)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if err := decode(resp, &auth, http.StatusOK); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	authToken = auth.Token
	return nil
}

func createCategory(apiURL string, c category) (string, error) {
	resp, err := request(http.MethodPost, apiURL+"/api/categories", c)
	if err != nil {
		return "", err
	}
	var created category
	if err := decode(resp, &created, http.StatusCreated); err != nil {
		return "", err
	}
	log.WithFields(log.Fields{
		"category_id": created.ID,
		"name":        c.Name,
		"frequency":   c.FrequencyPerYear,
	}).Info("Created category")
	return created.ID, nil
}

func createAsset(apiURL, categoryID, name string, n int) (string, error) {
	// backdate creation so the first cycles are already due
	createdAt := time.Now().AddDate(-1, -rand.Intn(6), 0)
	payload := map[string]interface{}{
		"category_id": categoryID,
		"code":        fmt.Sprintf("AST-%03d", n),
		"name":        fmt.Sprintf("%s #%d", name, n),
		"created_at":  createdAt,
	}
	resp, err := request(http.MethodPost, apiURL+"/api/assets", payload)
	if err != nil {
		return "", err
	}
	var created asset
	if err := decode(resp, &created, http.StatusCreated); err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"asset_id": created.ID, "code": payload["code"]}).Info("Created asset")
	return created.ID, nil
}

// walkFirstCycle submits findings on the asset's actionable cycle and
// confirms it, demonstrating that the second cycle unlocks only afterwards.
func walkFirstCycle(apiURL, assetID string) error {
	resp, err := request(http.MethodGet, apiURL+"/api/maintenance?asset_id="+assetID, nil)
	if err != nil {
		return err
	}
	var records []maintenanceRecord
	if err := decode(resp, &records, http.StatusOK); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	var first *maintenanceRecord
	for i := range records {
		if records[i].IsActionable {
			first = &records[i]
			break
		}
	}
	if first == nil {
		log.WithField("asset_id", assetID).Info("No actionable cycle, skipping")
		return nil
	}

	checklists := make([]map[string]string, 0, len(first.Checklists))
	for _, item := range first.Checklists {
		checklists = append(checklists, map[string]string{
			"checklist_id": item.ChecklistID,
			"value":        "good",
			"note":         "seeded inspection",
		})
	}
	findings := map[string]interface{}{
		"actual_date":          time.Now(),
		"note":                 "seeded maintenance run",
		"needs_further_repair": false,
		"checklists":           checklists,
	}
	resp, err = request(http.MethodPost, apiURL+"/api/maintenance/"+first.ID+"/findings", findings)
	if err != nil {
		return err
	}
	if err := decode(resp, nil, http.StatusOK); err != nil {
		return fmt.Errorf("submit findings: %w", err)
	}

	resp, err = request(http.MethodPost, apiURL+"/api/maintenance/"+first.ID+"/confirm", nil)
	if err != nil {
		return err
	}
	if err := decode(resp, nil, http.StatusOK); err != nil {
		return fmt.Errorf("confirm: %w", err)
	}

	log.WithFields(log.Fields{
		"asset_id":  assetID,
		"record_id": first.ID,
		"due":       first.EstimationDate.Format("2006-01-02"),
	}).Info("Walked first cycle to confirmed")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	apiURL := envOr("API_URL", "http://localhost:8080")

	if err := login(apiURL); err != nil {
		log.WithError(err).Fatal("Failed to authenticate")
	}

	assetsPerCategory := 3
	n := 1
	for _, c := range demoCategories {
		categoryID, err := createCategory(apiURL, c)
		if err != nil {
			log.WithError(err).WithField("name", c.Name).Fatal("Failed to create category")
		}
		for i := 0; i < assetsPerCategory; i++ {
			assetID, err := createAsset(apiURL, categoryID, c.Name, n)
			if err != nil {
				log.WithError(err).Fatal("Failed to create asset")
			}
			if err := walkFirstCycle(apiURL, assetID); err != nil {
				log.WithError(err).WithField("asset_id", assetID).Error("Failed to walk first cycle")
			}
			n++
		}
	}
	log.Info("Seeding complete")
}
