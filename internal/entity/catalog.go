package entity

// Catalog lists the farm entities served by the dashboard.
var Catalog = []Spec{
	{
		Name:      "bassins",
		Table:     "bassins_piscicoles",
		MirrorKey: "mock:bassins",
		Fields:    []FieldPair{{Backend: "nom", UI: "name"}},
	},
	{
		Name:      "poulaillers",
		Table:     "poulaillers",
		MirrorKey: "mock:poulaillers",
		Fields:    []FieldPair{{Backend: "nom", UI: "name"}},
	},
	{
		Name:      "cohortes",
		Table:     "cohortes_poulets",
		MirrorKey: "mock:cohortes",
		Fields: []FieldPair{
			{Backend: "nom", UI: "name"},
			{Backend: "effectif", UI: "headcount"},
		},
	},
	{
		Name:      "recoltes-miel",
		Table:     "recoltes_miel",
		MirrorKey: "mock:recoltes_miel",
		Fields:    []FieldPair{{Backend: "quantite", UI: "weight"}},
	},
	{
		Name:      "captures",
		Table:     "captures_peche",
		MirrorKey: "mock:captures",
		Fields: []FieldPair{
			{Backend: "nom", UI: "description"},
			{Backend: "quantite", UI: "weight"},
		},
	},
	{
		Name:      "zones-peche",
		Table:     "zones_peche",
		MirrorKey: "mock:zones_peche",
		Fields:    []FieldPair{{Backend: "nom", UI: "name"}},
	},
	{
		Name:      "stock-aliments",
		Table:     "stock_aliments",
		MirrorKey: "mock:stock_aliments",
		Fields: []FieldPair{
			{Backend: "nom", UI: "description"},
			{Backend: "quantite", UI: "quantity"},
		},
	},
	{
		Name:      "escargotieres",
		Table:     "escargoteres",
		MirrorKey: "mock:escargotieres",
		Fields:    []FieldPair{{Backend: "nom", UI: "name"}},
	},
	{
		Name:      "parcs",
		Table:     "parcs_helicicoles",
		MirrorKey: "mock:parcs",
		Fields:    []FieldPair{{Backend: "nom", UI: "name"}},
	},
	{
		Name:      "pontes",
		Table:     "pontes_escargots",
		MirrorKey: "mock:pontes",
		Fields:    []FieldPair{{Backend: "nombre_oeufs", UI: "eggCount"}},
	},
	{
		Name:      "mesures",
		Table:     "mesures_escargots",
		MirrorKey: "mock:mesures",
		Fields: []FieldPair{
			{Backend: "poids", UI: "weight"},
			{Backend: "taille", UI: "size"},
		},
	},
	{
		Name:      "journal",
		Table:     "journal_escargots",
		MirrorKey: "mock:journal",
		Fields:    []FieldPair{{Backend: "contenu", UI: "note"}},
	},
	{
		Name:      "clients",
		Table:     "clients",
		MirrorKey: "mock:clients",
		Fields:    []FieldPair{{Backend: "nom", UI: "name"}},
	},
	{
		Name:      "fournisseurs",
		Table:     "fournisseurs",
		MirrorKey: "mock:fournisseurs",
		Fields:    []FieldPair{{Backend: "nom", UI: "name"}},
	},
	{
		Name:      "ventes",
		Table:     "ventes",
		MirrorKey: "mock:ventes",
		Fields:    []FieldPair{{Backend: "montant", UI: "amount"}},
	},
}

// DefaultRegistry returns a registry over Catalog
func DefaultRegistry() *Registry {
	return NewRegistry(Catalog...)
}
