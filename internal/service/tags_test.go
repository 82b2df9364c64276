package service

import (
	"reflect"
	"testing"
)

func TestMergeTags(t *testing.T) {
	tests := []struct {
		name    string
		user    []string
		derived []string
		max     int
		want    []string
	}{
		{
			name:    "user tags first",
			user:    []string{"fantasy"},
			derived: []string{"mage", "silver hair"},
			max:     15,
			want:    []string{"fantasy", "mage", "silver hair"},
		},
		{
			name:    "case-insensitive dedupe",
			user:    []string{"Fantasy", "MAGE"},
			derived: []string{"fantasy", "mage", "school uniform"},
			max:     15,
			want:    []string{"fantasy", "mage", "school uniform"},
		},
		{
			name:    "whitespace and empties dropped",
			user:    []string{"  chibi  ", "", "   "},
			derived: nil,
			max:     15,
			want:    []string{"chibi"},
		},
		{
			name:    "cap applies across both sources",
			user:    []string{"a", "b", "c"},
			derived: []string{"d", "e"},
			max:     4,
			want:    []string{"a", "b", "c", "d"},
		},
		{
			name:    "nil inputs",
			user:    nil,
			derived: nil,
			max:     15,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeTags(tt.user, tt.derived, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeTags() = %v, want %v", got, tt.want)
			}
		})
	}
}
