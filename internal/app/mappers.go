package app

import (
	"strconv"
	"strings"

	"hotel_listings/internal/domain"
)

/********** alias registry (single source of truth) **********/

// catalogAliases lists the paths tried, in order, for each HotelInput field
// when reading loosely shaped catalog records.
var catalogAliases = map[string][]string{
	"name":        {"hotelName", "name", "hotel_name", "title"},
	"type":        {"hotelType", "type", "hotel_type", "category"},
	"province":    {"address.province", "province", "province_code", "address.province_code"},
	"district":    {"address.district", "district", "district_code", "address.district_code"},
	"ward":        {"address.ward", "ward", "ward_code", "address.ward_code"},
	"street":      {"address.street_address", "address.street", "street_address", "street", "address_line"},
	"image":       {"hotelImage.path", "image.path", "image", "thumbnail", "photo"},
	"ranking":     {"ranking", "rating", "stars", "star_rating"},
	"description": {"description", "descreiptionHotel", "desc", "summary"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) string {
	for _, p := range catalogAliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "4,5").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstIntFlexible: int from several paths (float64/int/string); 0 when absent.
func firstIntFlexible(m map[string]any, paths ...string) int {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.Atoi(s); err == nil {
				return n
			}
		}
	}
	return 0
}

/********** catalog record mapper **********/

// MapCatalogRecord converts one catalog record into a HotelInput. The type
// field still holds whatever the record carried (an id or a type name);
// IngestionService resolves it.
func MapCatalogRecord(r map[string]any) domain.HotelInput {
	return domain.HotelInput{
		Name:   firstNonEmptyAlias(r, "name"),
		TypeID: firstNonEmptyAlias(r, "type"),
		Address: domain.AddressInput{
			Province:      firstIntFlexible(r, catalogAliases["province"]...),
			District:      firstIntFlexible(r, catalogAliases["district"]...),
			Ward:          firstIntFlexible(r, catalogAliases["ward"]...),
			StreetAddress: firstNonEmptyAlias(r, "street"),
		},
		Image:       domain.ImageInput{Path: firstNonEmptyAlias(r, "image")},
		Ranking:     getFloatFlexible(r, catalogAliases["ranking"]...),
		Description: firstNonEmptyAlias(r, "description"),
	}
}
