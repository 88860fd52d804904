package traffic

import (
	"reflect"
	"testing"

	"gorm.io/datatypes"
)

func TestIDListRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil stays nil", in: nil, want: nil},
		{name: "empty collapses to nil", in: []string{}, want: nil},
		{name: "values survive", in: []string{"morning", "midday"}, want: []string{"morning", "midday"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DecodeIDList(EncodeIDList(tc.in))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("round trip: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecodeIDListMalformed(t *testing.T) {
	if got := DecodeIDList(datatypes.JSON(`{"not":"a list"}`)); got != nil {
		t.Fatalf("malformed column: got %v, want nil", got)
	}
	if got := DecodeIDList(datatypes.JSON("null")); got != nil {
		t.Fatalf("json null: got %v, want nil", got)
	}
}
