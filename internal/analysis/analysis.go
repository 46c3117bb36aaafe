// Package analysis aggregates fetched store collections into report values.
//
// All functions are pure: they only read the slices they are given and never
// retain them.
package analysis

import (
	"errors"
	"fmt"

	"github.com/UnknownOlympus/storelens/internal/geo"
	"github.com/UnknownOlympus/storelens/internal/models"
)

// Common errors for analysis functions.
var (
	ErrUnknownProduct = errors.New("cart references unknown product")
	ErrUnknownUser    = errors.New("cart references unknown user")
	ErrNoCarts        = errors.New("no carts to analyze")
)

// pricedProduct is the subset of a product needed to value a line item.
type pricedProduct struct {
	price    float64
	category string
}

// productIndex maps product IDs to their price and category.
// The first product wins when IDs are duplicated.
func productIndex(products []models.Product) map[int]pricedProduct {
	index := make(map[int]pricedProduct, len(products))
	for _, product := range products {
		if _, exists := index[product.ID]; exists {
			continue
		}
		index[product.ID] = pricedProduct{price: product.Price, category: product.Category}
	}

	return index
}

// TotalValueOfCategories sums price times quantity of every cart line item per product category.
// Every category present in products is reported, in the order it first appears there,
// so categories nobody bought are reported with zero value.
func TotalValueOfCategories(products []models.Product, carts []models.Cart) ([]models.CategoryTotal, error) {
	index := productIndex(products)

	totals := []models.CategoryTotal{}
	position := make(map[string]int)
	for _, product := range products {
		if _, seen := position[product.Category]; seen {
			continue
		}
		position[product.Category] = len(totals)
		totals = append(totals, models.CategoryTotal{Category: product.Category})
	}

	for _, cart := range carts {
		for _, item := range cart.Products {
			product, ok := index[item.ProductID]
			if !ok {
				return nil, fmt.Errorf("%w: cart %d, product %d", ErrUnknownProduct, cart.ID, item.ProductID)
			}
			totals[position[product.category]].Value += product.price * float64(item.Quantity)
		}
	}

	return totals, nil
}

// HighestValueCart finds the cart with the highest total value and resolves its owner.
// On a tie the earliest cart wins. It fails with ErrNoCarts when carts is empty.
func HighestValueCart(products []models.Product, carts []models.Cart, users []models.User) (models.CartValue, error) {
	if len(carts) == 0 {
		return models.CartValue{}, ErrNoCarts
	}

	index := productIndex(products)

	best := -1
	var bestValue float64
	for idx, cart := range carts {
		value, err := cartValue(index, cart)
		if err != nil {
			return models.CartValue{}, err
		}
		if best < 0 || value > bestValue {
			best, bestValue = idx, value
		}
	}

	owner, ok := userIndex(users)[carts[best].UserID]
	if !ok {
		return models.CartValue{}, fmt.Errorf("%w: cart %d, user %d", ErrUnknownUser, carts[best].ID, carts[best].UserID)
	}

	return models.CartValue{
		CartID: carts[best].ID,
		UserID: owner.ID,
		Name:   owner.Name,
		Value:  bestValue,
	}, nil
}

func cartValue(index map[int]pricedProduct, cart models.Cart) (float64, error) {
	var total float64
	for _, item := range cart.Products {
		product, ok := index[item.ProductID]
		if !ok {
			return 0, fmt.Errorf("%w: cart %d, product %d", ErrUnknownProduct, cart.ID, item.ProductID)
		}
		total += product.price * float64(item.Quantity)
	}

	return total, nil
}

// userIndex maps user IDs to users. The first user wins when IDs are duplicated.
func userIndex(users []models.User) map[int]models.User {
	index := make(map[int]models.User, len(users))
	for _, user := range users {
		if _, exists := index[user.ID]; !exists {
			index[user.ID] = user
		}
	}

	return index
}

// FarthestUsers compares every ordered pair of users and returns the pair living
// farthest apart. Pairs with equal coordinates are skipped and the first maximal
// pair wins. With fewer than two distinct locations the zero UserPair is returned.
func FarthestUsers(users []models.User) models.UserPair {
	var farthest models.UserPair
	for _, one := range users {
		for _, two := range users {
			from, to := one.Address.Geolocation, two.Address.Geolocation
			if from == to {
				continue
			}
			dist := geo.Distance(from, to)
			if dist > farthest.Distance {
				farthest = models.UserPair{UserOne: one.Name, UserTwo: two.Name, Distance: dist}
			}
		}
	}

	return farthest
}

// Analyze runs the category, cart and distance analyses in that order.
func Analyze(users []models.User, products []models.Product, carts []models.Cart) (models.Report, error) {
	categories, err := TotalValueOfCategories(products, carts)
	if err != nil {
		return models.Report{}, fmt.Errorf("failed to total categories: %w", err)
	}

	highest, err := HighestValueCart(products, carts, users)
	if err != nil {
		return models.Report{}, fmt.Errorf("failed to find highest value cart: %w", err)
	}

	return models.Report{
		Categories:    categories,
		HighestCart:   highest,
		FarthestUsers: FarthestUsers(users),
	}, nil
}
