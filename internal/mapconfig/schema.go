package mapconfig

import "github.com/invopop/jsonschema"

// Schema describes the map file for editors and validation tooling.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: false,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(File))
	schema.Title = "Roadrunner Map Config"
	schema.Description = "Maps, road segments, buildings and offices served by the game server"
	return schema
}
