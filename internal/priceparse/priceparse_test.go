package priceparse

import "testing"

func TestFirst(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		none bool
	}{
		{name: "DollarSign", text: "I can offer $750 for it", want: 750},
		{name: "ThousandsSeparator", text: "Asking $1,200.50 firm", want: 1200.50},
		{name: "DollarsWord", text: "How about 700 dollars?", want: 700},
		{name: "ContextWord", text: "I could pay 680 if you throw in the mats", want: 680},
		{name: "YearExcluded", text: "2018 Honda Civic for $850", want: 850},
		{name: "YearOnly", text: "It's a 2018 model", none: true},
		{name: "NoPrice", text: "Thanks, let me think about it.", none: true},
		{name: "Acceptance", text: "Deal, I accept $775", want: 775},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := First(tt.text)
			if tt.none {
				if got != nil {
					t.Fatalf("expected no price, got %v", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %v, got nil", tt.want)
			}
			if *got != tt.want {
				t.Errorf("wrong price: got %v, want %v", *got, tt.want)
			}
		})
	}
}

func TestAll(t *testing.T) {
	t.Run("MultipleMentions", func(t *testing.T) {
		got := All("I can offer $750 or maybe $800")
		if len(got) != 2 || got[0] != 750 || got[1] != 800 {
			t.Errorf("wrong prices: got %v", got)
		}
	})

	t.Run("YearNeverSelected", func(t *testing.T) {
		got := All("2018 Honda Civic for $850")
		if len(got) != 1 || got[0] != 850 {
			t.Errorf("wrong prices: got %v", got)
		}
		for _, v := range got {
			if v == 2018 {
				t.Error("year 2018 selected as a price candidate")
			}
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if got := All("no numbers here"); len(got) != 0 {
			t.Errorf("expected none, got %v", got)
		}
	})
}

func TestIsYearLike(t *testing.T) {
	for _, v := range []float64{2000, 2018, 2030} {
		if !IsYearLike(v) {
			t.Errorf("%v should be year-like", v)
		}
	}
	for _, v := range []float64{1999, 2031, 850, 2018.5} {
		if IsYearLike(v) {
			t.Errorf("%v should not be year-like", v)
		}
	}
}
