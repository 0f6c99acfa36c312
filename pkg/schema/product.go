package schema

const ProductChangedSchemaTextV1 = `{
	"type": "record",
	"namespace": "catalog",
	"name": "ProductChanged",
	"fields": [
		{"name": "product_id", "type": "string"},
		{"name": "category", "type": "string"},
		{"name": "subcategory", "type": "string"},
		{"name": "action", "type": {
			"type": "enum",
			"name": "ProductChangeAction",
			"symbols": ["UPSERT", "DELETE"]
		}},
		{"name": "previous_category", "type": ["null", "string"], "default": null},
		{"name": "previous_subcategory", "type": ["null", "string"], "default": null}
	]
}`

const (
	ActionUpsertV1 = "UPSERT"
	ActionDeleteV1 = "DELETE"
)

// ProductChangedV1 announces a stored product was written or removed.
// The previous pair is set only when the write moved the product.
type ProductChangedV1 struct {
	ProductID           string  `avro:"product_id"`
	Category            string  `avro:"category"`
	Subcategory         string  `avro:"subcategory"`
	Action              string  `avro:"action"`
	PreviousCategory    *string `avro:"previous_category"`
	PreviousSubcategory *string `avro:"previous_subcategory"`
}
