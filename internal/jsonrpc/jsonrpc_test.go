package jsonrpc

import (
	"encoding/json"
	"testing"
)

func TestNewRequest_Bytes(t *testing.T) {
	req, err := NewRequest("getTokenLargestAccounts", []interface{}{"Mint", map[string]string{"commitment": "confirmed"}}, NewIDInt(7))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	data, err := req.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	want := `{"jsonrpc":"2.0","method":"getTokenLargestAccounts","params":["Mint",{"commitment":"confirmed"}],"id":7}`
	if string(data) != want {
		t.Errorf("Bytes() = %s\nwant %s", data, want)
	}
}

func TestParseRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"jsonrpc":"2.0","method":"watch","params":["largest","A"],"id":1}`},
		{name: "bad version", body: `{"jsonrpc":"1.0","method":"watch","id":1}`, wantErr: true},
		{name: "no method", body: `{"jsonrpc":"2.0","id":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseRequest: %v", err)
			}
			if err := req.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequest_StringParams(t *testing.T) {
	req, _ := ParseRequest([]byte(`{"jsonrpc":"2.0","method":"watch","params":["largest","A"],"id":1}`))
	params, err := req.StringParams()
	if err != nil {
		t.Fatalf("StringParams: %v", err)
	}
	if len(params) != 2 || params[0] != "largest" || params[1] != "A" {
		t.Errorf("StringParams() = %v", params)
	}

	req, _ = ParseRequest([]byte(`{"jsonrpc":"2.0","method":"watch","params":{"a":1},"id":1}`))
	if _, err := req.StringParams(); err == nil {
		t.Error("expected error for object params")
	}
}

func TestParseResponse_Error(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid param: not a Token mint"},"id":1}`))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Err() == nil {
		t.Fatal("Err() = nil")
	}
	if resp.Error.Code != CodeInvalidParams {
		t.Errorf("code = %d", resp.Error.Code)
	}
	if got := resp.Error.Error(); got != "rpc error -32602: Invalid param: not a Token mint" {
		t.Errorf("Error() = %q", got)
	}
}

func TestResponse_DecodeResult(t *testing.T) {
	resp, _ := ParseResponse([]byte(`{"jsonrpc":"2.0","result":{"value":1},"id":1}`))
	if resp.Err() != nil {
		t.Fatalf("Err() = %v", resp.Err())
	}
	var out struct{ Value int }
	if err := resp.DecodeResult(&out); err != nil || out.Value != 1 {
		t.Errorf("DecodeResult = %+v, %v", out, err)
	}

	resp, _ = ParseResponse([]byte(`{"jsonrpc":"2.0","id":1}`))
	if err := resp.DecodeResult(&out); err == nil {
		t.Error("expected error for response without result")
	}
}

func TestID_Int(t *testing.T) {
	var decoded struct {
		ID ID `json:"id"`
	}
	if err := json.Unmarshal([]byte(`{"id":12}`), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n, ok := decoded.ID.Int(); !ok || n != 12 {
		t.Errorf("decoded Int() = %d, %v", n, ok)
	}
	if n, ok := NewIDInt(7).Int(); !ok || n != 7 {
		t.Errorf("NewIDInt(7).Int() = %d, %v", n, ok)
	}
	if _, ok := NewIDNull().Int(); ok {
		t.Error("null id reported as numeric")
	}
}

func TestRequest_WithID(t *testing.T) {
	req, _ := NewRequest("getAccountInfo", []string{"A"}, NewIDInt(1))
	moved := req.WithID(NewIDInt(99))

	if n, _ := req.ID.Int(); n != 1 {
		t.Errorf("original id changed to %d", n)
	}
	if n, _ := moved.ID.Int(); n != 99 || moved.Method != req.Method || string(moved.Params) != `["A"]` {
		t.Errorf("moved = %+v", moved)
	}
}
