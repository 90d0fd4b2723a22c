package gym

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Space describes an action or observation space of a server-side gym
// environment
type Space struct {
	Name  string    `json:"name"`
	N     int       `json:"n,omitempty"`
	Shape []int     `json:"shape,omitempty"`
	Low   []float64 `json:"low,omitempty"`
	High  []float64 `json:"high,omitempty"`
}

// Request and response schemas of the gym HTTP API
type createRequest struct {
	EnvID string `json:"env_id"`
}

type createResponse struct {
	InstanceID string `json:"instance_id"`
}

type resetResponse struct {
	Observation []float64 `json:"observation"`
}

type stepRequest struct {
	Action int  `json:"action"`
	Render bool `json:"render"`
}

type stepResponse struct {
	Observation []float64 `json:"observation"`
	Reward      float64   `json:"reward"`
	Done        bool      `json:"done"`
}

type spaceResponse struct {
	Info Space `json:"info"`
}

// Client speaks the OpenAI gym HTTP API to a remote gym server, which
// owns the environment instances. Requests never time out: a hung
// server blocks the caller.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a new Client for the gym server at baseURL, for
// example http://localhost:5000
func NewClient(baseURL string) (*Client, error) {
	if !strings.HasPrefix(baseURL, "http://") &&
		!strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("newClient: base URL %v is not an HTTP URL",
			baseURL)
	}

	return &Client{strings.TrimSuffix(baseURL, "/"), &http.Client{}}, nil
}

// Create creates a new environment instance of envID on the server,
// returning the server-assigned instance ID
func (c *Client) Create(envID string) (string, error) {
	var resp createResponse
	err := c.post("/v1/envs/", createRequest{envID}, &resp)
	if err != nil {
		return "", fmt.Errorf("create: %v", err)
	}

	return resp.InstanceID, nil
}

// Reset resets an environment instance, returning its starting
// observation
func (c *Client) Reset(instanceID string) ([]float64, error) {
	var resp resetResponse
	path := fmt.Sprintf("/v1/envs/%v/reset/", instanceID)
	if err := c.post(path, nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %v", err)
	}

	return resp.Observation, nil
}

// Step takes a single step in an environment instance, optionally
// rendering the environment on the server
func (c *Client) Step(instanceID string, action int, render bool) ([]float64,
	float64, bool, error) {
	var resp stepResponse
	path := fmt.Sprintf("/v1/envs/%v/step/", instanceID)
	if err := c.post(path, stepRequest{action, render}, &resp); err != nil {
		return nil, 0, true, fmt.Errorf("step: %v", err)
	}

	return resp.Observation, resp.Reward, resp.Done, nil
}

// ActionSpace returns the action space of an environment instance
func (c *Client) ActionSpace(instanceID string) (Space, error) {
	var resp spaceResponse
	path := fmt.Sprintf("/v1/envs/%v/action_space/", instanceID)
	if err := c.get(path, &resp); err != nil {
		return Space{}, fmt.Errorf("actionSpace: %v", err)
	}

	return resp.Info, nil
}

// ObservationSpace returns the observation space of an environment
// instance
func (c *Client) ObservationSpace(instanceID string) (Space, error) {
	var resp spaceResponse
	path := fmt.Sprintf("/v1/envs/%v/observation_space/", instanceID)
	if err := c.get(path, &resp); err != nil {
		return Space{}, fmt.Errorf("observationSpace: %v", err)
	}

	return resp.Info, nil
}

// Close closes an environment instance on the server
func (c *Client) Close(instanceID string) error {
	path := fmt.Sprintf("/v1/envs/%v/close/", instanceID)
	if err := c.post(path, nil, nil); err != nil {
		return fmt.Errorf("close: %v", err)
	}

	return nil
}

func (c *Client) post(path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("post: could not encode request: %v", err)
		}
	}

	resp, err := c.client.Post(c.baseURL+path, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("post: %v returned status %v", path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("post: could not decode response: %v", err)
		}
	}
	return nil
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("get: %v returned status %v", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("get: could not decode response: %v", err)
	}
	return nil
}
