package llm

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// UnmarshalArguments unmarshals tool-call argument JSON into v. Models
// occasionally emit slightly malformed JSON; on a syntax error the text is
// run through jsonrepair before retrying once.
func UnmarshalArguments(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
