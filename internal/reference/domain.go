// Package reference serves the region and business class lookups used by forms and lists.
package reference

import "strconv"

// Region is a top-level administrative unit.
type Region struct {
	Oid        string `json:"Oid"`
	RegionName string `json:"RegionName"`
	RegionCode string `json:"RegionCode"`
	ShortName  string `json:"ShortName"`
}

// SubRegion belongs to a Region.
type SubRegion struct {
	Oid           string `json:"Oid"`
	RegionID      string `json:"RegionId"`
	SubRegionCode string `json:"SubRegionCode"`
	SubRegionName string `json:"SubRegionName"`
}

// BusinessClass classifies a customer's activity.
type BusinessClass struct {
	Oid               string `json:"Oid"`
	BusinessClassOid  string `json:"BusinessClassOid"`
	BusinessClassName string `json:"BusinessClassName"`
	BusinessClassCode int    `json:"BusinessClassCode"`
}

// Data bundles every reference list.
type Data struct {
	Regions         []Region        `json:"regions"`
	SubRegions      []SubRegion     `json:"subRegions"`
	BusinessClasses []BusinessClass `json:"businessClasses"`
}

// SubRegionsOf filters sub-regions by parent region.
func (d Data) SubRegionsOf(regionID string) []SubRegion {
	out := make([]SubRegion, 0)
	for _, sub := range d.SubRegions {
		if sub.RegionID == regionID {
			out = append(out, sub)
		}
	}
	return out
}

// BusinessClassName resolves a class by either of its identifiers; unknown ids
// are returned unchanged.
func (d Data) BusinessClassName(id string) string {
	if id == "" {
		return ""
	}
	for _, bc := range d.BusinessClasses {
		if bc.Oid == id || bc.BusinessClassOid == id {
			return bc.BusinessClassName
		}
	}
	return id
}

// Label renders the class as "code - name".
func (bc BusinessClass) Label() string {
	return strconv.Itoa(bc.BusinessClassCode) + " - " + bc.BusinessClassName
}

// RegionName resolves a region id.
func (d Data) RegionName(id string) string {
	for _, r := range d.Regions {
		if r.Oid == id {
			return r.RegionName
		}
	}
	return ""
}
