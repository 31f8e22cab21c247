package bridge

import "github.com/bytedance/sonic"

// Response is the envelope every request/response channel returns:
// {"success": true, ...payload} or {"success": false, "error": "..."}.
type Response struct {
	Success bool
	Error   string
	Payload map[string]any
}

// MarshalJSON flattens the payload next to the success flag.
func (r Response) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Payload)+2)
	if r.Success {
		for k, v := range r.Payload {
			m[k] = v
		}
	} else {
		m["error"] = r.Error
	}
	m["success"] = r.Success
	return sonic.Marshal(m)
}

func ok(payload map[string]any) Response {
	return Response{Success: true, Payload: payload}
}

func fail(err error) Response {
	return Response{Success: false, Error: err.Error()}
}
