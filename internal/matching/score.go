// Package matching scores buyer/listing compatibility.
package matching

import (
	"fmt"

	listingmodels "dealroom/internal/listing/models"
	"dealroom/internal/matching/models"
	dstrings "dealroom/pkg/platform/strings"
)

const (
	regionWeight      = 30
	industryWeight    = 30
	priceWeight       = 20
	priceNearWeight   = 10
	revenueWeight     = 20
	revenueNearWeight = 10
	maxScore          = 100
	priceTolerance    = 0.10
	revenueTolerance  = 0.20
)

// Score compares a listing to a buyer's preferences. It never fails: a
// missing listing attribute or buyer preference contributes zero.
func Score(listing *listingmodels.Listing, profile *models.BuyerProfile) models.Result {
	result := models.Result{Reasons: []string{}}
	if listing == nil || profile == nil {
		return result
	}

	add := func(points int, reason string) {
		result.Score += points
		result.Reasons = append(result.Reasons, reason)
	}

	if listing.Region != "" {
		if dstrings.ContainsFold(profile.Regions, models.AllRegions) {
			add(regionWeight, "Open to all regions")
		} else if dstrings.ContainsFold(profile.Regions, listing.Region) {
			add(regionWeight, fmt.Sprintf("Located in preferred region %s", listing.Region))
		}
	}

	if listing.Category != "" && dstrings.ContainsFold(profile.Industries, listing.Category) {
		add(industryWeight, fmt.Sprintf("Industry %s matches your preferences", listing.Category))
	}

	if mid, ok := listing.PriceMidpoint(); ok {
		switch bandOf(mid, profile.PriceMin, profile.PriceMax, priceTolerance) {
		case bandInside:
			add(priceWeight, "Asking price within your budget")
		case bandNear:
			add(priceNearWeight, "Asking price close to your budget")
		}
	}

	if listing.Revenue != nil {
		switch bandOf(float64(*listing.Revenue), profile.RevenueMin, profile.RevenueMax, revenueTolerance) {
		case bandInside:
			add(revenueWeight, "Revenue within your target range")
		case bandNear:
			add(revenueNearWeight, "Revenue close to your target range")
		}
	}

	result.Score = min(result.Score, maxScore)
	return result
}

type band int

const (
	bandOutside band = iota
	bandInside
	bandNear
)

// bandOf places v relative to [lo, hi] and the range widened by tolerance.
// A single missing bound is open-ended; both missing is outside.
func bandOf(v float64, lo, hi *int64, tolerance float64) band {
	if lo == nil && hi == nil {
		return bandOutside
	}
	if within(v, lo, hi, 0) {
		return bandInside
	}
	if within(v, lo, hi, tolerance) {
		return bandNear
	}
	return bandOutside
}

func within(v float64, lo, hi *int64, tolerance float64) bool {
	if lo != nil && v < float64(*lo)*(1-tolerance) {
		return false
	}
	if hi != nil && v > float64(*hi)*(1+tolerance) {
		return false
	}
	return true
}
