package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/averyhale/saga-engine/pkg/dice"
	"github.com/averyhale/saga-engine/pkg/state"
	"github.com/averyhale/saga-engine/pkg/story"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// GameSetupRequest matches the API create-game request structure.
type GameSetupRequest struct {
	PlayerName string `json:"player_name"`
	WorldID    string `json:"world_id,omitempty"`
	Wishes     string `json:"wishes,omitempty"`
}

// TurnResponse matches the API turn/burn/chapter response structure.
type TurnResponse struct {
	Narration     string              `json:"narration"`
	Roll          *state.RollResult   `json:"roll,omitempty"`
	Move          *state.MoveContext  `json:"move,omitempty"`
	Consequences  []state.Consequence `json:"consequences,omitempty"`
	ClockEvents   []state.ClockEvent  `json:"clock_events,omitempty"`
	Interrupt     *dice.Interrupt     `json:"interrupt,omitempty"`
	BurnOffered   bool                `json:"burn_offered,omitempty"`
	BurnUpgrade   string              `json:"burn_upgrade,omitempty"`
	StoryComplete bool                `json:"story_complete,omitempty"`
	GameOver      bool                `json:"game_over,omitempty"`
	GameID        uuid.UUID           `json:"game_id"`
	State         *state.GameState    `json:"state,omitempty"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func listWorlds(client *http.Client, baseURL string) ([]story.World, error) {
	resp, err := client.Get(baseURL + "/v1/worlds")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var worlds []story.World
	if err := json.NewDecoder(resp.Body).Decode(&worlds); err != nil {
		return nil, err
	}
	return worlds, nil
}

func createGame(client *http.Client, baseURL string, setup GameSetupRequest) (*TurnResponse, error) {
	jsonData, err := json.Marshal(setup)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/games",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp.StatusCode, body, "failed to create game")
	}

	var created TurnResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse game response: %w", err)
	}
	return &created, nil
}

func getGameState(client *http.Client, baseURL string, gameID uuid.UUID) (*state.GameState, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/games/%s", baseURL, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "failed to get game state")
	}

	var gameState state.GameState
	if err := json.Unmarshal(body, &gameState); err != nil {
		return nil, fmt.Errorf("failed to parse game state response: %w", err)
	}
	return &gameState, nil
}

func sendTurn(client *http.Client, baseURL string, gameID uuid.UUID, input string) (*TurnResponse, error) {
	return postAction(client, fmt.Sprintf("%s/v1/games/%s/turn", baseURL, gameID),
		map[string]string{"input": input}, "turn request failed")
}

func burnMomentum(client *http.Client, baseURL string, gameID uuid.UUID) (*TurnResponse, error) {
	return postAction(client, fmt.Sprintf("%s/v1/games/%s/burn", baseURL, gameID),
		nil, "burn request failed")
}

func advanceChapter(client *http.Client, baseURL string, gameID uuid.UUID) (*TurnResponse, error) {
	return postAction(client, fmt.Sprintf("%s/v1/games/%s/chapter", baseURL, gameID),
		nil, "chapter request failed")
}

func requestEpilogue(client *http.Client, baseURL string, gameID uuid.UUID, input string) (*TurnResponse, error) {
	var payload any
	if input != "" {
		payload = map[string]string{"input": input}
	}
	return postAction(client, fmt.Sprintf("%s/v1/games/%s/epilogue", baseURL, gameID),
		payload, "epilogue request failed")
}

func getRecap(client *http.Client, baseURL string, gameID uuid.UUID) (string, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/games/%s/recap", baseURL, gameID))
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp.StatusCode, body, "recap request failed")
	}

	var recap struct {
		Recap string `json:"recap"`
	}
	if err := json.Unmarshal(body, &recap); err != nil {
		return "", fmt.Errorf("failed to parse recap response: %w", err)
	}
	return recap.Recap, nil
}

func postAction(client *http.Client, url string, payload any, failMsg string) (*TurnResponse, error) {
	var reqBody io.Reader = http.NoBody
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	resp, err := client.Post(url, "application/json", reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, failMsg)
	}

	var turnResp TurnResponse
	if err := json.Unmarshal(body, &turnResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &turnResp, nil
}

func apiError(status int, body []byte, failMsg string) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("%s: %s", failMsg, errorResp.Error)
}
