package slugify_test

import (
	"testing"

	"github.com/alenadem/stonecart/pkg/slugify"
	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Браслеты", "braslety"},
		{"Аметист", "ametist"},
		{"  Яндекс Доставка  ", "yandeks-dostavka"},
		{"Rose Quartz", "rose-quartz"},
		{"жемчуг---белый", "zhemchug-belyi"},
		{"Щётка №5", "schetka-5"},
		{"!!!", "x"},
		{"", "x"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, slugify.Slug(c.in), "input %q", c.in)
	}
}
