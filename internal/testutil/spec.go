// Package testutil provides a fake FDM device for tests: an in-process HTTP
// server speaking the token, apispec and object CRUD endpoints the engine
// depends on, with the error conventions of the real device (duplicate-name
// and invalid-UUID 422s, 408 token expiry).
package testutil

// SpecJSON is a reduced Swagger 2.0 document in the shape the device
// publishes at /apispec/ngfw.json: network objects with a wrapper model,
// enum definitions referenced from properties, a paged list endpoint, file
// upload/download actions and one plain operational endpoint.
const SpecJSON = `{
  "swagger": "2.0",
  "info": {"title": "FTD REST API", "version": "2"},
  "basePath": "/api/fdm/v2",
  "definitions": {
    "Links": {
      "type": "object",
      "properties": {"self": {"type": "string"}}
    },
    "LinksWrapper": {
      "type": "object",
      "properties": {"links": {"$ref": "#/definitions/Links"}}
    },
    "Paging": {
      "type": "object",
      "properties": {
        "prev": {"type": "array", "items": {"type": "string"}},
        "next": {"type": "array", "items": {"type": "string"}},
        "limit": {"type": "integer"},
        "offset": {"type": "integer"},
        "count": {"type": "integer"}
      }
    },
    "NetworkObjectType": {
      "type": "string",
      "enum": ["HOST", "NETWORK", "RANGE", "FQDN"]
    },
    "FQDNDNSResolution": {
      "type": "string",
      "enum": ["IPV4_ONLY", "IPV6_ONLY", "IPV4_AND_IPV6"]
    },
    "NetworkObject": {
      "type": "object",
      "required": ["subType", "type", "value"],
      "properties": {
        "id": {"type": "string"},
        "version": {"type": "string"},
        "name": {"type": "string"},
        "description": {"type": "string"},
        "subType": {"$ref": "#/definitions/NetworkObjectType"},
        "value": {"type": "string"},
        "dnsResolution": {"$ref": "#/definitions/FQDNDNSResolution"},
        "isSystemDefined": {"type": "boolean"},
        "type": {"type": "string"}
      }
    },
    "NetworkObjectWrapper": {
      "allOf": [
        {"$ref": "#/definitions/NetworkObject"},
        {"$ref": "#/definitions/LinksWrapper"}
      ]
    },
    "ReferenceModel": {
      "type": "object",
      "properties": {
        "id": {"type": "string"},
        "type": {"type": "string"},
        "version": {"type": "string"},
        "name": {"type": "string"}
      }
    },
    "DiskFileDTO": {
      "type": "object",
      "properties": {
        "id": {"type": "string"},
        "diskFileName": {"type": "string"},
        "type": {"type": "string"}
      }
    },
    "SystemInformation": {
      "type": "object",
      "properties": {
        "softwareVersion": {"type": "string"},
        "hostname": {"type": "string"},
        "type": {"type": "string"}
      }
    }
  },
  "paths": {
    "/object/networks": {
      "get": {
        "operationId": "getNetworkObjectList",
        "parameters": [
          {"name": "offset", "in": "query", "required": false, "type": "integer"},
          {"name": "limit", "in": "query", "required": false, "type": "integer"},
          {"name": "sort", "in": "query", "required": false, "type": "string"},
          {"name": "filter", "in": "query", "required": false, "type": "string"}
        ],
        "responses": {
          "200": {
            "description": "",
            "schema": {
              "type": "object",
              "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/NetworkObjectWrapper"}},
                "paging": {"$ref": "#/definitions/Paging"}
              }
            }
          }
        }
      },
      "post": {
        "operationId": "addNetworkObject",
        "parameters": [
          {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NetworkObjectWrapper"}}
        ],
        "responses": {
          "200": {"description": "", "schema": {"$ref": "#/definitions/NetworkObjectWrapper"}}
        }
      }
    },
    "/object/networks/{objId}": {
      "get": {
        "operationId": "getNetworkObject",
        "parameters": [
          {"name": "objId", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "", "schema": {"$ref": "#/definitions/NetworkObjectWrapper"}}
        }
      },
      "put": {
        "operationId": "editNetworkObject",
        "parameters": [
          {"name": "objId", "in": "path", "required": true, "type": "string"},
          {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NetworkObjectWrapper"}}
        ],
        "responses": {
          "200": {"description": "", "schema": {"$ref": "#/definitions/NetworkObjectWrapper"}}
        }
      },
      "delete": {
        "operationId": "deleteNetworkObject",
        "parameters": [
          {"name": "objId", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "", "schema": {"$ref": "#/definitions/ReferenceModel"}}
        }
      }
    },
    "/action/uploaddiskfile": {
      "post": {
        "operationId": "uploadDiskFile",
        "consumes": ["multipart/form-data"],
        "parameters": [
          {"name": "fileToUpload", "in": "formData", "required": true, "type": "file"}
        ],
        "responses": {
          "200": {"description": "", "schema": {"$ref": "#/definitions/DiskFileDTO"}}
        }
      }
    },
    "/action/downloaddiskfile/{objId}": {
      "get": {
        "operationId": "getDownloadDiskFile",
        "produces": ["application/octet-stream"],
        "parameters": [
          {"name": "objId", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "", "schema": {"type": "file"}}
        }
      }
    },
    "/operational/systeminfo/{objId}": {
      "get": {
        "operationId": "getSystemInformation",
        "parameters": [
          {"name": "objId", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "", "schema": {"$ref": "#/definitions/SystemInformation"}}
        }
      }
    }
  }
}`
