package money_test

import (
	"fmt"
	"log"

	"github.com/amirasaad/ledger/pkg/money"
)

// ExampleParse demonstrates how to create Money from decimal strings.
func ExampleParse() {
	usd, err := money.Parse("100.50", money.USD)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(usd)

	jpy, err := money.Parse("1000", money.JPY)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(jpy)

	_, err = money.Parse("0.001", money.USD)
	fmt.Println(err != nil)
	// Output:
	// 100.50 USD
	// 1000 JPY
	// true
}

// ExampleMoney_Add demonstrates adding money values
func ExampleMoney_Add() {
	a := money.MustParse("100.00", money.USD)
	b := money.MustParse("50.25", money.USD)

	sum, err := a.Add(b)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(sum)

	_, err = a.Add(money.MustParse("1.00", money.EUR))
	fmt.Println(err)
	// Output:
	// 150.25 USD
	// currency mismatch: cannot add EUR to USD
}
