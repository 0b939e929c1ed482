package oh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/tidwall/gjson"

	"github.com/tacit/wm/internal/state"
)

const diveContextFile = "dive_context.md"

// LoadDivePack fetches a dive pack and stores its rendered markdown as
// the current dive context.
func LoadDivePack(ctx context.Context, packID string) error {
	if !state.IsInitialized() {
		return errors.New("not initialized; run 'wm init' first")
	}

	apiURL, apiKey, err := apiCredentials()
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/dive-packs/%s", apiURL, packID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch dive pack: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read dive pack response: %w", err)
	}

	if apiErr := gjson.GetBytes(body, "error"); apiErr.Exists() {
		return fmt.Errorf("OH API error: %s", apiErr.String())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch dive pack: HTTP %d", resp.StatusCode)
	}

	rendered := gjson.GetBytes(body, "rendered_md")
	if !rendered.Exists() || rendered.Type != gjson.String {
		return errors.New("dive pack missing rendered_md field")
	}

	if err := state.WriteFileAtomic(state.Path(diveContextFile), []byte(rendered.String())); err != nil {
		return fmt.Errorf("write dive context: %w", err)
	}
	fmt.Printf("Dive pack loaded to .wm/%s (%d bytes)\n", diveContextFile, len(rendered.String()))
	return nil
}

// ClearDiveContext removes the stored dive context, if any.
func ClearDiveContext() error {
	if !state.IsInitialized() {
		return errors.New("not initialized; run 'wm init' first")
	}
	path := state.Path(diveContextFile)
	if _, err := os.Stat(path); err != nil {
		fmt.Println("No dive context to clear")
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove dive context: %w", err)
	}
	fmt.Println("Dive context cleared")
	return nil
}

// ShowDiveContext prints the stored dive context.
func ShowDiveContext() error {
	if !state.IsInitialized() {
		return errors.New("not initialized; run 'wm init' first")
	}
	content, err := os.ReadFile(state.Path(diveContextFile))
	if err != nil {
		fmt.Println("No dive context loaded. Use 'wm dive load <pack-id>' to load a dive pack.")
		return nil
	}
	fmt.Println(string(content))
	return nil
}
