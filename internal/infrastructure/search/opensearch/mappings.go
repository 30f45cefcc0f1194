package opensearch

// ProductsIndexMapping returns the mapping for the product catalog index.
// Documents are keyed by SKU.  The mapping is closed (dynamic false) so a
// malformed export column can never pollute it; brand values are
// normalized to lowercase for stable terms buckets.
func ProductsIndexMapping() IndexMapping {
	return IndexMapping{
		Settings: map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
			"analysis": map[string]interface{}{
				"normalizer": map[string]interface{}{
					"keyword_lowercase": map[string]interface{}{
						"type":   "custom",
						"filter": []string{"lowercase"},
					},
				},
			},
		},
		Mappings: map[string]interface{}{
			"dynamic": false,
			"properties": map[string]interface{}{
				"sku": map[string]interface{}{"type": "keyword"},
				"name": map[string]interface{}{
					"type": "text",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256},
					},
				},
				"group_code":   map[string]interface{}{"type": "keyword"},
				"active":       map[string]interface{}{"type": "boolean"},
				"stock_status": map[string]interface{}{"type": "keyword"},
				"brand": map[string]interface{}{
					"type":       "keyword",
					"normalizer": "keyword_lowercase",
				},
				"description_html":  map[string]interface{}{"type": "text"},
				"description_short": map[string]interface{}{"type": "text"},
				"description_feed":  map[string]interface{}{"type": "text"},
				"price":             map[string]interface{}{"type": "scaled_float", "scaling_factor": 100},
				"price_list":        map[string]interface{}{"type": "scaled_float", "scaling_factor": 100},
				"price_final":       map[string]interface{}{"type": "scaled_float", "scaling_factor": 100},
				"vat_included":      map[string]interface{}{"type": "boolean"},
				"vat_rate":          map[string]interface{}{"type": "scaled_float", "scaling_factor": 10},
				"image_url":         map[string]interface{}{"type": "keyword"},
				"image_main":        map[string]interface{}{"type": "keyword"},
				"image_secondary_1": map[string]interface{}{"type": "keyword"},
				"image_secondary_2": map[string]interface{}{"type": "keyword"},
				"category_path":     map[string]interface{}{"type": "keyword"},
				"category_main":     map[string]interface{}{"type": "keyword"},
				"subcategory_level1": map[string]interface{}{"type": "keyword"},
				"subcategory_level2": map[string]interface{}{"type": "keyword"},
				"meta_title":        map[string]interface{}{"type": "text"},
				"meta_description":  map[string]interface{}{"type": "text"},
				"keywords":          map[string]interface{}{"type": "text"},
				"cross_sell_skus":   map[string]interface{}{"type": "keyword"},
				"up_sell_skus":      map[string]interface{}{"type": "keyword"},
				"ingredients_html":  map[string]interface{}{"type": "text"},
				"url":               map[string]interface{}{"type": "keyword"},
				"total_revenue":     map[string]interface{}{"type": "scaled_float", "scaling_factor": 100},

				"attr_volume_ml":        map[string]interface{}{"type": "float"},
				"attr_length_mm":        map[string]interface{}{"type": "float"},
				"attr_strength_percent": map[string]interface{}{"type": "float"},
				"attr_grit":             map[string]interface{}{"type": "keyword"},
				"attr_shade_code":       map[string]interface{}{"type": "keyword"},
				"attr_finish":           map[string]interface{}{"type": "keyword"},
				"attr_curing_type":      map[string]interface{}{"type": "keyword"},
				"attr_liquid_type":      map[string]interface{}{"type": "keyword"},
				"attr_scent":            map[string]interface{}{"type": "keyword"},
				"attr_material":         map[string]interface{}{"type": "keyword"},
				"attr_shape":            map[string]interface{}{"type": "keyword"},
				"attr_color_name":       map[string]interface{}{"type": "keyword"},
				"attr_collection":       map[string]interface{}{"type": "keyword"},

				"created_at": map[string]interface{}{"type": "date"},
				"updated_at": map[string]interface{}{"type": "date"},
			},
		},
	}
}

// DailyStatsIndexMapping returns the mapping for per-SKU daily sales
// statistics.  Documents are keyed by "{sku}_{date}" so order and return
// ingests can merge into the same day.
func DailyStatsIndexMapping() IndexMapping {
	return IndexMapping{
		Settings: map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		Mappings: map[string]interface{}{
			"properties": map[string]interface{}{
				"sku":         map[string]interface{}{"type": "keyword"},
				"date":        map[string]interface{}{"type": "date", "format": "strict_date"},
				"views":       map[string]interface{}{"type": "integer"},
				"add_to_cart": map[string]interface{}{"type": "integer"},
				"purchases":   map[string]interface{}{"type": "integer"},
				"returns":     map[string]interface{}{"type": "integer"},
				"revenue":     map[string]interface{}{"type": "scaled_float", "scaling_factor": 100},
				"updated_at":  map[string]interface{}{"type": "date"},
			},
		},
	}
}

// IncidentsIndexMapping returns the mapping for supplier shipment damage
// incidents.  damage_type is a multi-valued keyword: an incident tagged
// with N damage types lands in N distribution buckets.
func IncidentsIndexMapping() IndexMapping {
	return IndexMapping{
		Settings: map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		Mappings: map[string]interface{}{
			"properties": map[string]interface{}{
				"incident_id":           map[string]interface{}{"type": "keyword"},
				"supplier_id":           map[string]interface{}{"type": "keyword"},
				"supplier_name":         map[string]interface{}{"type": "keyword"},
				"date_reported":         map[string]interface{}{"type": "date"},
				"sku":                   map[string]interface{}{"type": "keyword"},
				"product_type":          map[string]interface{}{"type": "keyword"},
				"category_main":         map[string]interface{}{"type": "keyword"},
				"qty_total_in_shipment": map[string]interface{}{"type": "integer"},
				"qty_damaged":           map[string]interface{}{"type": "integer"},
				"damage_type":           map[string]interface{}{"type": "keyword"},
				"shipment_id":           map[string]interface{}{"type": "keyword"},
				"transport_company":     map[string]interface{}{"type": "keyword"},
				"root_cause_guess":      map[string]interface{}{"type": "text"},
				"batch_id":              map[string]interface{}{"type": "keyword"},
				"packaging_primary":     map[string]interface{}{"type": "keyword"},
				"packaging_secondary":   map[string]interface{}{"type": "keyword"},
				"packaging_cushioning":  map[string]interface{}{"type": "keyword"},
				"comment":               map[string]interface{}{"type": "text"},
				"created_at":            map[string]interface{}{"type": "date"},
			},
		},
	}
}
