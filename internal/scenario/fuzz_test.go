// internal/scenario/fuzz_test.go
package scenario

import (
	"bytes"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"gopkg.in/yaml.v3"
)

// FuzzDecode feeds raw bytes to the decoder; it must never panic.
func FuzzDecode(f *testing.F) {
	f.Add([]byte("steps:\n  - get: https://example.test/\n"))
	f.Add([]byte("steps:\n  - select: id=s\n    indexes: [2, 0]\n"))
	f.Add([]byte("browsers: [chrome_h]\nsteps: [{click: '#a', timeout: 1s}]\n"))
	f.Add([]byte("steps:\n  - type: css=input\n    expect: ''\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		sc, err := Decode(bytes.NewReader(data))
		if err != nil {
			return
		}
		if len(sc.Steps) == 0 {
			t.Fatal("decoded scenario without steps")
		}
		for i, st := range sc.Steps {
			if st.Action() == "" {
				t.Fatalf("step %d passed validation without a single action", i+1)
			}
		}
	})
}

// FuzzStepRoundTrip builds structured steps, encodes them and checks that
// whatever the decoder accepts keeps its action.
func FuzzStepRoundTrip(f *testing.F) {
	f.Add([]byte{0x01, 0x02, 0x03, 0x04})

	f.Fuzz(func(t *testing.T, data []byte) {
		var st Step
		if err := fuzz.NewConsumer(data).GenerateStruct(&st); err != nil {
			return
		}

		out, err := yaml.Marshal(&Scenario{Steps: []Step{st}})
		if err != nil {
			return
		}
		sc, err := Decode(bytes.NewReader(out))
		if err != nil {
			return
		}
		if got, want := sc.Steps[0].Action(), st.Action(); got != want {
			t.Fatalf("action changed in round trip: got %q, want %q\n%s", got, want, out)
		}
	})
}
